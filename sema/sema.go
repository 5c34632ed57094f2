// This file is part of brink.
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sema implements Brink's semantic resolver: unique
// section and label names, the exactly-one-output rule, identifier binding
// for positional queries, and cycle detection over the section-write
// graph. It batches diagnostics rather than stopping at the first one,
// since none of its checks depend on one another succeeding first.
package sema

import (
	"brink/ast"
	"brink/diag"
	"brink/token"
)

// Result is the resolver's symbol table, consumed by package lower and
// package engine.
type Result struct {
	Sections map[string]*ast.Section
	Labels   map[string]token.Span

	Output        *ast.Output
	OutputSection *ast.Section
}

// Resolve validates prog and returns its symbol table plus any
// diagnostics. The Result is never nil: when the program has no usable
// output target, its Output and/or OutputSection fields are nil and the
// rest of the table is still populated as far as possible, so that callers
// can keep reporting further diagnostics downstream if they choose to.
func Resolve(prog *ast.Program) (*Result, diag.Diagnostics) {
	var errs diag.Diagnostics
	res := &Result{Sections: map[string]*ast.Section{}, Labels: map[string]token.Span{}}

	for _, s := range prog.Sections {
		if prev, ok := res.Sections[s.Name]; ok {
			errs = errs.Add(diag.DuplicateName, s.Span, "section %q redefines section previously defined at %s", s.Name, prev.Span.Start)
			continue
		}
		res.Sections[s.Name] = s
	}

	for _, s := range prog.Sections {
		collectLabels(s, res, &errs)
	}

	switch len(prog.Outputs) {
	case 0:
		errs = errs.Add(diag.MissingOutput, token.Span{}, "program has no 'output' statement")
	case 1:
		out := prog.Outputs[0]
		res.Output = out
		if sec, ok := res.Sections[out.Section]; ok {
			res.OutputSection = sec
		} else {
			errs = errs.Add(diag.UndefinedIdentifier, out.Span, "output target %q is not a defined section", out.Section)
		}
	default:
		for _, out := range prog.Outputs[1:] {
			errs = errs.Add(diag.MultipleOutput, out.Span, "program has more than one 'output' statement; first is at %s", prog.Outputs[0].Span.Start)
		}
		res.Output = prog.Outputs[0]
		if sec, ok := res.Sections[res.Output.Section]; ok {
			res.OutputSection = sec
		}
	}

	for _, s := range prog.Sections {
		checkStmtIdents(s.Stmts, res, &errs)
	}
	if res.Output != nil && res.Output.StartAddr != nil {
		checkExprIdents(res.Output.StartAddr, res, &errs)
	}

	if cyc := findCycle(prog, res); cyc != "" {
		errs = errs.Add(diag.Cycle, res.Sections[cyc].Span, "section %q transitively writes itself", cyc)
	}

	return res, errs
}

func collectLabels(s *ast.Section, res *Result, errs *diag.Diagnostics) {
	for _, st := range s.Stmts {
		if l, ok := st.(*ast.LabelDef); ok {
			if prev, ok := res.Labels[l.Name]; ok {
				*errs = errs.Add(diag.DuplicateName, l.Span(), "label %q redefines label previously defined at %s", l.Name, prev.Start)
				continue
			}
			res.Labels[l.Name] = l.Span()
		}
	}
}

func checkStmtIdents(stmts []ast.Stmt, res *Result, errs *diag.Diagnostics) {
	for _, st := range stmts {
		switch s := st.(type) {
		case *ast.Write:
			switch s.Kind {
			case ast.WriteSection:
				if _, ok := res.Sections[s.Section]; !ok {
					*errs = errs.Add(diag.UndefinedIdentifier, s.Span(), "undefined section %q", s.Section)
				}
			default:
				for _, e := range s.Exprs {
					checkExprIdents(e, res, errs)
				}
			}
		case *ast.Pad:
			checkExprIdents(s.Target, res, errs)
			if s.PadByte != nil {
				checkExprIdents(s.PadByte, res, errs)
			}
		case *ast.Assert:
			checkExprIdents(s.Expr, res, errs)
		case *ast.Print:
			for _, e := range s.Exprs {
				checkExprIdents(e, res, errs)
			}
		}
	}
}

func checkExprIdents(e ast.Expr, res *Result, errs *diag.Diagnostics) {
	switch x := e.(type) {
	case *ast.Unary:
		checkExprIdents(x.X, res, errs)
	case *ast.Binary:
		checkExprIdents(x.X, res, errs)
		checkExprIdents(x.Y, res, errs)
	case *ast.Call:
		for _, a := range x.Args {
			if id, ok := a.(*ast.Ident); ok {
				if _, isSec := res.Sections[id.Name]; isSec {
					continue
				}
				if _, isLbl := res.Labels[id.Name]; isLbl {
					continue
				}
				*errs = errs.Add(diag.UndefinedIdentifier, id.Span(), "undefined identifier %q", id.Name)
				continue
			}
			checkExprIdents(a, res, errs)
		}
	}
}

// findCycle returns the name of a section that transitively writes itself,
// or "" if the write graph is acyclic.
func findCycle(prog *ast.Program, res *Result) string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := map[string]int{}

	var visit func(name string) string
	visit = func(name string) string {
		switch state[name] {
		case visiting:
			return name
		case done:
			return ""
		}
		state[name] = visiting
		sec := res.Sections[name]
		if sec != nil {
			for _, st := range sec.Stmts {
				if w, ok := st.(*ast.Write); ok && w.Kind == ast.WriteSection {
					if _, ok := res.Sections[w.Section]; ok {
						if c := visit(w.Section); c != "" {
							state[name] = done
							return c
						}
					}
				}
			}
		}
		state[name] = done
		return ""
	}

	for _, s := range prog.Sections {
		if state[s.Name] == unvisited {
			if c := visit(s.Name); c != "" {
				return c
			}
		}
	}
	return ""
}
