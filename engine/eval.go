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

package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"brink/ast"
	"brink/diag"
	"brink/lower"
	"brink/token"
	"brink/value"
)

// deferredErr signals that an expression cannot be evaluated this pass
// because one of its positional queries names a symbol not yet known. It
// is not a user-visible error: the engine retries on the next iteration.
type deferredErr struct{ symbol string }

func (d *deferredErr) Error() string { return fmt.Sprintf("%s is not yet known", d.symbol) }

func isDeferred(err error) (*deferredErr, bool) {
	d, ok := err.(*deferredErr)
	return d, ok
}

// scopeError reports an out-of-scope identifier use: sec(id)
// outside the current section's occurrence, an abs/img target with other
// than exactly one occurrence, or a sizeof without a written section
// argument.
type scopeError struct{ msg string }

func (e *scopeError) Error() string { return e.msg }

func errCode(err error) diag.Code {
	switch err.(type) {
	case *value.TypeMismatchError:
		return diag.TypeMismatch
	case *value.OverflowError:
		return diag.ArithOverflow
	case *value.DivZeroError:
		return diag.DivZero
	case *scopeError:
		return diag.OutOfScope
	default:
		return diag.Internal
	}
}

// eval evaluates expr against lc (the location counter at the point the
// expression is encountered, before the enclosing op's own effect) and
// anc, the chain of enclosing occurrence ids (innermost last).
func (e *Engine) eval(anc []lower.OccurrenceID, lc LC, expr ast.Expr) (value.Value, error) {
	switch x := expr.(type) {
	case *ast.IntLit:
		return parseIntLit(x)

	case *ast.StringLit:
		return value.NewString(x.Value), nil

	case *ast.Unary:
		v, err := e.eval(anc, lc, x.X)
		if err != nil {
			return value.Value{}, err
		}
		return value.Sub(value.NewInteger(0), v)

	case *ast.Binary:
		return e.evalBinary(anc, lc, x)

	case *ast.Call:
		return e.evalCall(anc, lc, x)

	default:
		return value.Value{}, errors.Errorf("internal: cannot evaluate %T as an expression", expr)
	}
}

func (e *Engine) evalBinary(anc []lower.OccurrenceID, lc LC, x *ast.Binary) (value.Value, error) {
	if x.Op == token.AndAnd {
		lv, err := e.eval(anc, lc, x.X)
		if err != nil {
			return value.Value{}, err
		}
		if !lv.IsTruthy() {
			return value.NewInteger(0), nil
		}
		rv, err := e.eval(anc, lc, x.Y)
		if err != nil {
			return value.Value{}, err
		}
		return value.LogicalAnd(lv, rv), nil
	}
	if x.Op == token.OrOr {
		lv, err := e.eval(anc, lc, x.X)
		if err != nil {
			return value.Value{}, err
		}
		if lv.IsTruthy() {
			return value.NewInteger(1), nil
		}
		rv, err := e.eval(anc, lc, x.Y)
		if err != nil {
			return value.Value{}, err
		}
		return value.LogicalOr(lv, rv), nil
	}

	lv, err := e.eval(anc, lc, x.X)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := e.eval(anc, lc, x.Y)
	if err != nil {
		return value.Value{}, err
	}

	switch x.Op {
	case token.Plus:
		return value.Add(lv, rv)
	case token.Minus:
		return value.Sub(lv, rv)
	case token.Star:
		return value.Mul(lv, rv)
	case token.Slash:
		return value.Div(lv, rv)
	case token.Amp:
		return value.And(lv, rv)
	case token.Pipe:
		return value.Or(lv, rv)
	case token.Shl:
		return value.Shl(lv, rv)
	case token.Shr:
		return value.Shr(lv, rv)
	case token.Eq:
		return value.Cmp("==", lv, rv)
	case token.Ne:
		return value.Cmp("!=", lv, rv)
	case token.Lt:
		return value.Cmp("<", lv, rv)
	case token.Le:
		return value.Cmp("<=", lv, rv)
	case token.Gt:
		return value.Cmp(">", lv, rv)
	case token.Ge:
		return value.Cmp(">=", lv, rv)
	default:
		return value.Value{}, errors.Errorf("internal: unknown binary operator %v", x.Op)
	}
}

func (e *Engine) evalCall(anc []lower.OccurrenceID, lc LC, x *ast.Call) (value.Value, error) {
	switch x.Name {
	case "to_u64":
		v, err := e.eval(anc, lc, x.Args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.ToU64(v), nil
	case "to_i64":
		v, err := e.eval(anc, lc, x.Args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.ToI64(v), nil
	case "sizeof":
		return e.evalSizeof(anc, x)
	case "sec":
		return e.evalSec(anc, lc, x)
	case "img":
		return e.evalImgAbs(anc, lc, x, false)
	case "abs":
		return e.evalImgAbs(anc, lc, x, true)
	default:
		return value.Value{}, errors.Errorf("internal: unknown builtin %q", x.Name)
	}
}

func (e *Engine) evalSizeof(anc []lower.OccurrenceID, x *ast.Call) (value.Value, error) {
	if len(x.Args) == 0 {
		return value.Value{}, &scopeError{"sizeof() requires a section name argument"}
	}
	id := x.Args[0].(*ast.Ident)
	name := id.Name
	if sz, ok := e.secSize[name]; ok {
		return value.NewU64(sz), nil
	}
	if _, isSection := e.prog.SectionOccurrenceCount[name]; !isSection {
		return value.Value{}, &scopeError{fmt.Sprintf("sizeof(%s): %q is not a section", name, name)}
	}
	return value.Value{}, &deferredErr{fmt.Sprintf("sizeof(%s)", name)}
}

func (e *Engine) evalSec(anc []lower.OccurrenceID, lc LC, x *ast.Call) (value.Value, error) {
	if len(x.Args) == 0 {
		return value.NewU64(lc.SecOff), nil
	}
	id := x.Args[0].(*ast.Ident)
	name := id.Name
	if len(anc) == 0 {
		return value.Value{}, &scopeError{fmt.Sprintf("sec(%s): no enclosing section occurrence", name)}
	}
	cur := anc[len(anc)-1]
	curOcc := e.prog.OccurrenceByID(cur)

	var nested []lower.Occurrence
	for _, o := range e.prog.Occurrences {
		if o.Section == name && o.ID != cur && curOcc.Contains(o) {
			nested = append(nested, o)
		}
	}
	if len(nested) == 0 {
		return value.Value{}, &scopeError{fmt.Sprintf("sec(%s): %q is not reachable from the current section's occurrence", name, name)}
	}
	if len(nested) > 1 {
		return value.Value{}, &scopeError{fmt.Sprintf("sec(%s): %q has multiple occurrences reachable from here", name, name)}
	}

	target := nested[0]
	st, ok := e.occStart[target.ID]
	if !ok {
		return value.Value{}, &deferredErr{fmt.Sprintf("sec(%s)", name)}
	}
	curStart, ok := e.occStart[cur]
	if !ok {
		return value.Value{}, &deferredErr{fmt.Sprintf("sec(%s)", name)}
	}
	return value.NewU64(st.ImgOff - curStart.ImgOff), nil
}

func (e *Engine) evalImgAbs(anc []lower.OccurrenceID, lc LC, x *ast.Call, isAbs bool) (value.Value, error) {
	if len(x.Args) == 0 {
		if isAbs {
			return value.NewU64(lc.Abs), nil
		}
		return value.NewU64(lc.ImgOff), nil
	}
	id := x.Args[0].(*ast.Ident)
	name := id.Name
	builtin := "img"
	if isAbs {
		builtin = "abs"
	}

	if secCount, isSection := e.prog.SectionOccurrenceCount[name]; isSection {
		if secCount > 1 {
			return value.Value{}, &scopeError{fmt.Sprintf("%s(%s): %q has %d occurrences, expected exactly one", builtin, name, name, secCount)}
		}
		occID, ok := e.secOcc[name]
		if !ok {
			return value.Value{}, &deferredErr{fmt.Sprintf("%s(%s)", builtin, name)}
		}
		st, ok := e.occStart[occID]
		if !ok {
			return value.Value{}, &deferredErr{fmt.Sprintf("%s(%s)", builtin, name)}
		}
		if isAbs {
			return value.NewU64(st.Abs), nil
		}
		return value.NewU64(st.ImgOff), nil
	}

	if lblCount, isLabel := e.prog.LabelOccurrenceCount[name]; isLabel {
		if lblCount > 1 {
			return value.Value{}, &scopeError{fmt.Sprintf("%s(%s): label %q has %d occurrences, expected exactly one", builtin, name, name, lblCount)}
		}
		pos, ok := e.labelPos[name]
		if !ok {
			return value.Value{}, &deferredErr{fmt.Sprintf("%s(%s)", builtin, name)}
		}
		if isAbs {
			return value.NewU64(pos.Abs), nil
		}
		return value.NewU64(pos.ImgOff), nil
	}

	return value.Value{}, &scopeError{fmt.Sprintf("%s(%s): %q has no occurrence reachable from the output section", builtin, name, name)}
}

// EvalConstant evaluates expr with no layout context at all: no enclosing
// occurrence, location counter at zero. It is used for the output
// statement's start-address expression, which is evaluated before any
// layout exists and so must not reference sizeof/sec/img/abs/labels.
func EvalConstant(expr ast.Expr) (uint64, error) {
	e := &Engine{
		prog:     &lower.Program{SectionOccurrenceCount: map[string]int{}, LabelOccurrenceCount: map[string]int{}},
		occStart: map[lower.OccurrenceID]LC{},
		occEnd:   map[lower.OccurrenceID]LC{},
		labelPos: map[string]LC{},
		secSize:  map[string]uint64{},
		secOcc:   map[string]lower.OccurrenceID{},
	}
	v, err := e.eval(nil, LC{}, expr)
	if err != nil {
		return 0, err
	}
	return v.AsU64(), nil
}

func parseIntLit(x *ast.IntLit) (value.Value, error) {
	s := strings.ReplaceAll(x.Digits, "_", "")
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return value.Value{}, errors.Wrapf(err, "invalid integer literal %q", x.Digits)
	}
	switch x.Suffix {
	case "u":
		return value.NewU64(u), nil
	case "i":
		return value.NewI64(int64(u)), nil
	default:
		return value.NewInteger(int64(u)), nil
	}
}
