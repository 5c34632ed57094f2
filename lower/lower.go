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

// Package lower flattens the section tree rooted at the output target into
// an ordered linear operation list: a flat op vector built by recursing
// into `wr` targets and minting a fresh occurrence id per visit, with
// EnterSection/LeaveSection bracketing each one.
package lower

import (
	"brink/ast"
	"brink/diag"
	"brink/sema"
	"brink/token"
)

// maxRecursionDepth bounds section-nesting recursion against runaway
// mutual `wr` references.
const maxRecursionDepth = 100

// OccurrenceID identifies one embedding of a section into the image.
type OccurrenceID int

// Occurrence records one embedding of a section, and the closed index
// range [EnterIdx, LeaveIdx] it occupies in Program.Ops (both indices point
// at the bracketing EnterSection/LeaveSection ops themselves).
type Occurrence struct {
	ID       OccurrenceID
	Section  string
	Parent   OccurrenceID // -1 for the output root
	EnterIdx int
	LeaveIdx int
}

// Contains reports whether occurrence other is the same as, or nested
// inside, occurrence o, using their op-index ranges — valid because lowering
// flattens strictly nested, non-overlapping ranges.
func (o Occurrence) Contains(other Occurrence) bool {
	return o.EnterIdx <= other.EnterIdx && other.LeaveIdx <= o.LeaveIdx
}

// Kind tags the variant carried by an Op.
type Kind int

const (
	EnterSection Kind = iota
	LeaveSection
	EmitLiteral
	EmitFile
	EmitInt
	PadTo
	Align
	Assert
	Print
	LabelDef
)

// PadTarget distinguishes set_sec/set_img/set_abs.
type PadTarget int

const (
	PadSec PadTarget = iota
	PadImg
	PadAbs
)

// Op is one linear operation. Only the fields relevant to Kind are
// meaningful.
type Op struct {
	Kind       Kind
	Occurrence OccurrenceID
	Span       token.Span

	Section string // EnterSection, LeaveSection

	Literal string // EmitLiteral

	FilePath string // EmitFile

	Width      int      // EmitInt: byte width, 1..8
	IntExpr    ast.Expr // EmitInt
	RepeatExpr ast.Expr // EmitInt, nil => 1

	PadKind     PadTarget // PadTo
	TargetExpr  ast.Expr  // PadTo, Align (alignment)
	PadByteExpr ast.Expr  // PadTo, Align; nil => 0

	AssertExpr ast.Expr   // Assert
	PrintExprs []ast.Expr // Print

	Label string // LabelDef
}

// Program is the flattened linear operation list plus the occurrence table
// and the static occurrence counts used to resolve img()/abs() ambiguity
// without needing a full evaluation pass.
type Program struct {
	Ops         []Op
	Occurrences []Occurrence

	SectionOccurrenceCount map[string]int
	LabelOccurrenceCount   map[string]int
}

// OccurrenceByID returns the occurrence record for id.
func (p *Program) OccurrenceByID(id OccurrenceID) Occurrence {
	return p.Occurrences[id]
}

// Lower flattens res's output target into a Program. If res has no usable
// output section (already reported by package sema), Lower returns an
// empty Program and no further diagnostics.
func Lower(res *sema.Result) (*Program, diag.Diagnostics) {
	prog := &Program{
		SectionOccurrenceCount: map[string]int{},
		LabelOccurrenceCount:   map[string]int{},
	}
	if res.OutputSection == nil {
		return prog, nil
	}

	var errs diag.Diagnostics
	nextID := OccurrenceID(0)

	var rec func(sectionName string, parent OccurrenceID, span token.Span, depth int) OccurrenceID
	rec = func(sectionName string, parent OccurrenceID, span token.Span, depth int) OccurrenceID {
		if depth > maxRecursionDepth {
			errs = errs.Add(diag.Internal, span, "maximum section nesting depth (%d) exceeded while writing %q", maxRecursionDepth, sectionName)
			return -1
		}

		id := nextID
		nextID++
		prog.SectionOccurrenceCount[sectionName]++
		// Occurrences is indexed by id, not append order: a section's
		// occurrence is appended here (in id order) as a placeholder and
		// filled in on the way out, since ids are minted pre-order but
		// nested children finish (and would otherwise append) first.
		prog.Occurrences = append(prog.Occurrences, Occurrence{})

		enterIdx := len(prog.Ops)
		prog.Ops = append(prog.Ops, Op{Kind: EnterSection, Occurrence: id, Section: sectionName, Span: span})

		sec := res.Sections[sectionName]
		for _, st := range sec.Stmts {
			switch s := st.(type) {
			case *ast.LabelDef:
				prog.LabelOccurrenceCount[s.Name]++
				prog.Ops = append(prog.Ops, Op{Kind: LabelDef, Occurrence: id, Label: s.Name, Span: s.Span()})

			case *ast.Write:
				lowerWrite(prog, s, id, parent, &errs, rec, depth)

			case *ast.Pad:
				switch s.Kind {
				case ast.PadAlign:
					prog.Ops = append(prog.Ops, Op{Kind: Align, Occurrence: id, TargetExpr: s.Target, PadByteExpr: s.PadByte, Span: s.Span()})
				case ast.PadSetSec:
					prog.Ops = append(prog.Ops, Op{Kind: PadTo, Occurrence: id, PadKind: PadSec, TargetExpr: s.Target, PadByteExpr: s.PadByte, Span: s.Span()})
				case ast.PadSetImg:
					prog.Ops = append(prog.Ops, Op{Kind: PadTo, Occurrence: id, PadKind: PadImg, TargetExpr: s.Target, PadByteExpr: s.PadByte, Span: s.Span()})
				case ast.PadSetAbs:
					prog.Ops = append(prog.Ops, Op{Kind: PadTo, Occurrence: id, PadKind: PadAbs, TargetExpr: s.Target, PadByteExpr: s.PadByte, Span: s.Span()})
				}

			case *ast.Assert:
				prog.Ops = append(prog.Ops, Op{Kind: Assert, Occurrence: id, AssertExpr: s.Expr, Span: s.Span()})

			case *ast.Print:
				prog.Ops = append(prog.Ops, Op{Kind: Print, Occurrence: id, PrintExprs: s.Exprs, Span: s.Span()})
			}
		}

		leaveIdx := len(prog.Ops)
		prog.Ops = append(prog.Ops, Op{Kind: LeaveSection, Occurrence: id, Section: sectionName, Span: span})
		prog.Occurrences[id] = Occurrence{
			ID: id, Section: sectionName, Parent: parent, EnterIdx: enterIdx, LeaveIdx: leaveIdx,
		}
		return id
	}

	rec(res.OutputSection.Name, -1, res.Output.Span, 1)
	return prog, errs
}

func lowerWrite(prog *Program, s *ast.Write, id, parent OccurrenceID, errs *diag.Diagnostics,
	rec func(string, OccurrenceID, token.Span, int) OccurrenceID, depth int) {
	switch s.Kind {
	case ast.WriteSection:
		rec(s.Section, id, s.Span(), depth+1)
	case ast.WriteString:
		for _, e := range s.Exprs {
			lit, ok := e.(*ast.StringLit)
			if !ok {
				*errs = errs.Add(diag.TypeMismatch, e.Span(), "wrs operands must be string literals")
				continue
			}
			prog.Ops = append(prog.Ops, Op{Kind: EmitLiteral, Occurrence: id, Literal: lit.Value, Span: e.Span()})
		}
	case ast.WriteFile:
		prog.Ops = append(prog.Ops, Op{Kind: EmitFile, Occurrence: id, FilePath: s.Path, Span: s.Span()})
	case ast.WriteInt:
		op := Op{Kind: EmitInt, Occurrence: id, Width: s.Width / 8, IntExpr: s.Exprs[0], Span: s.Span()}
		if len(s.Exprs) > 1 {
			op.RepeatExpr = s.Exprs[1]
		}
		prog.Ops = append(prog.Ops, op)
	}
}
