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

// Package engine implements Brink's layout & evaluation engine (spec
// §4.3–§4.5): a fixed-point pass over a lower.Program that resolves
// positional forward references, appends bytes to an image buffer, and
// replays print/assert side effects. It mirrors the shape of
// (*vm.Instance).Run — a single big per-op switch, driven to completion
// with recover()-free error accumulation instead of the VM's panic/recover,
// since here failures are user-facing diagnostics rather than bugs.
package engine

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"brink/diag"
	"brink/lower"
	"brink/token"
)

// LC is the location-counter triple
type LC struct {
	SecOff uint64
	ImgOff uint64
	Abs    uint64
}

func advance(lc LC, n uint64) LC {
	lc.SecOff += n
	lc.ImgOff += n
	lc.Abs += n
	return lc
}

// Result is the core's output: bytes and console lines. Diagnostics are
// returned beside it by Run.
type Result struct {
	Image   []byte
	Console []string
}

// Engine holds the progressively-discovered symbol tables that persist
// across fixed-point iterations, once a position becomes known.
type Engine struct {
	prog    *lower.Program
	baseDir string

	occStart map[lower.OccurrenceID]LC
	occEnd   map[lower.OccurrenceID]LC
	labelPos map[string]LC
	secSize  map[string]uint64
	// secOcc maps a section name with exactly one occurrence to that
	// occurrence's id, once its EnterSection has been reached.
	secOcc map[string]lower.OccurrenceID
}

// Run evaluates prog to a fixed point and returns the produced image and
// console log, or diagnostics explaining why it could not.
//
// baseDir resolves relative wrf paths; startAddr is the output
// statement's starting absolute address (default 0).
func Run(prog *lower.Program, startAddr uint64, baseDir string) (*Result, diag.Diagnostics) {
	e := &Engine{
		prog:     prog,
		baseDir:  baseDir,
		occStart: map[lower.OccurrenceID]LC{},
		occEnd:   map[lower.OccurrenceID]LC{},
		labelPos: map[string]LC{},
		secSize:  map[string]uint64{},
		secOcc:   map[string]lower.OccurrenceID{},
	}

	// Bounded by |symbols|+2: every non-terminal iteration
	// must discover at least one new symbol or we give up.
	maxIter := len(prog.Occurrences) + len(prog.LabelOccurrenceCount) + len(prog.SectionOccurrenceCount) + 2
	lastKnownCount := -1

	for iter := 0; iter < maxIter; iter++ {
		pr := e.runPass(startAddr)

		if pr.diags.HasErrors() {
			return nil, pr.diags
		}
		if pr.blocked == "" && !pr.usedPlaceholder {
			return &Result{Image: pr.image, Console: pr.console}, nil
		}

		known := len(e.occStart) + len(e.occEnd) + len(e.labelPos) + len(e.secSize)
		if known == lastKnownCount {
			span := pr.blockedSpan
			sym := pr.blocked
			if sym == "" {
				sym = "a forward reference"
			}
			return nil, diag.Diagnostics{diag.New(diag.UnresolvedReference, span,
				"could not resolve %s; layout did not converge", sym)}
		}
		lastKnownCount = known
	}
	return nil, diag.Diagnostics{diag.New(diag.UnresolvedReference, token.Span{},
		"layout did not converge after %d iterations", maxIter)}
}

// passResult accumulates one full walk's worth of output. A pass is only
// authoritative (its image/console final) when it neither blocked nor
// used a placeholder anywhere.
type passResult struct {
	image           []byte
	console         []string
	diags           diag.Diagnostics
	blocked         string
	blockedSpan     token.Span
	usedPlaceholder bool
}

type frame struct {
	occ          lower.OccurrenceID
	parentSecOff uint64
}

func (e *Engine) runPass(startAddr uint64) *passResult {
	pr := &passResult{}
	lc := LC{SecOff: 0, ImgOff: 0, Abs: startAddr}
	var stack []frame
	ancestors := func() []lower.OccurrenceID {
		ids := make([]lower.OccurrenceID, len(stack))
		for i, f := range stack {
			ids[i] = f.occ
		}
		return ids
	}

	for _, op := range e.prog.Ops {
		switch op.Kind {
		case lower.EnterSection:
			e.occStart[op.Occurrence] = lc
			if e.prog.SectionOccurrenceCount[op.Section] == 1 {
				e.secOcc[op.Section] = op.Occurrence
			}
			stack = append(stack, frame{occ: op.Occurrence, parentSecOff: lc.SecOff})
			lc.SecOff = 0

		case lower.LeaveSection:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			childSize := lc.SecOff
			e.occEnd[top.occ] = lc
			if _, ok := e.secSize[op.Section]; !ok {
				e.secSize[op.Section] = childSize
			}
			lc.SecOff = top.parentSecOff + childSize

		case lower.LabelDef:
			e.labelPos[op.Label] = lc

		case lower.EmitLiteral:
			b := []byte(op.Literal)
			pr.image = append(pr.image, b...)
			lc = advance(lc, uint64(len(b)))

		case lower.EmitFile:
			data, err := e.readFile(op.FilePath)
			if err != nil {
				pr.diags = pr.diags.Add(diag.FileIO, op.Span, "%v", err)
				continue
			}
			pr.image = append(pr.image, data...)
			lc = advance(lc, uint64(len(data)))

		case lower.EmitInt:
			if !e.emitInt(pr, &lc, ancestors(), op) {
				return pr
			}

		case lower.PadTo:
			if !e.padTo(pr, &lc, ancestors(), op) {
				return pr
			}

		case lower.Align:
			if !e.align(pr, &lc, ancestors(), op) {
				return pr
			}

		case lower.Assert:
			e.doAssert(pr, ancestors(), lc, op)

		case lower.Print:
			e.doPrint(pr, ancestors(), lc, op)
		}
	}
	return pr
}

func (e *Engine) emitInt(pr *passResult, lc *LC, anc []lower.OccurrenceID, op lower.Op) bool {
	repeat := uint64(1)
	if op.RepeatExpr != nil {
		rv, err := e.eval(anc, *lc, op.RepeatExpr)
		if d, ok := isDeferred(err); ok {
			pr.blocked, pr.blockedSpan = d.symbol, op.Span
			return false
		}
		if err != nil {
			pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
			*lc = advance(*lc, uint64(op.Width))
			return true
		}
		repeat = rv.AsU64()
	}
	total := uint64(op.Width) * repeat
	if repeat == 0 {
		return true
	}

	vv, err := e.eval(anc, *lc, op.IntExpr)
	switch {
	case isDeferredErr(err):
		pr.image = append(pr.image, make([]byte, total)...)
		pr.usedPlaceholder = true
	case err != nil:
		pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
		pr.image = append(pr.image, make([]byte, total)...)
	default:
		u := vv.AsU64()
		buf := make([]byte, op.Width)
		for i := 0; i < op.Width; i++ {
			buf[i] = byte(u >> (8 * uint(i)))
		}
		for r := uint64(0); r < repeat; r++ {
			pr.image = append(pr.image, buf...)
		}
	}
	*lc = advance(*lc, total)
	return true
}

func (e *Engine) padTo(pr *passResult, lc *LC, anc []lower.OccurrenceID, op lower.Op) bool {
	tv, err := e.eval(anc, *lc, op.TargetExpr)
	if d, ok := isDeferred(err); ok {
		pr.blocked, pr.blockedSpan = d.symbol, op.Span
		return false
	}
	if err != nil {
		pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
		return true
	}
	target := tv.AsU64()
	var cur uint64
	var what string
	switch op.PadKind {
	case lower.PadSec:
		cur, what = lc.SecOff, "sec"
	case lower.PadImg:
		cur, what = lc.ImgOff, "img"
	case lower.PadAbs:
		cur, what = lc.Abs, "abs"
	}
	if target < cur {
		pr.diags = pr.diags.Add(diag.BackwardMotion, op.Span,
			"set_%s %d would move the location counter backward from %d", what, target, cur)
		return true
	}
	n := target - cur
	padByte := e.resolvePadByte(pr, anc, *lc, op)
	pr.image = append(pr.image, bytes.Repeat([]byte{padByte}, int(n))...)
	*lc = advance(*lc, n)
	return true
}

func (e *Engine) align(pr *passResult, lc *LC, anc []lower.OccurrenceID, op lower.Op) bool {
	av, err := e.eval(anc, *lc, op.TargetExpr)
	if d, ok := isDeferred(err); ok {
		pr.blocked, pr.blockedSpan = d.symbol, op.Span
		return false
	}
	if err != nil {
		pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
		return true
	}
	alignment := av.AsU64()
	if alignment == 0 {
		pr.diags = pr.diags.Add(diag.BadAlignment, op.Span, "align 0 is invalid")
		return true
	}
	if alignment == 1 {
		return true
	}
	var n uint64
	if rem := lc.Abs % alignment; rem != 0 {
		n = alignment - rem
	}
	padByte := e.resolvePadByte(pr, anc, *lc, op)
	pr.image = append(pr.image, bytes.Repeat([]byte{padByte}, int(n))...)
	*lc = advance(*lc, n)
	return true
}

func (e *Engine) resolvePadByte(pr *passResult, anc []lower.OccurrenceID, lc LC, op lower.Op) byte {
	if op.PadByteExpr == nil {
		return 0
	}
	pv, err := e.eval(anc, lc, op.PadByteExpr)
	switch {
	case isDeferredErr(err):
		pr.usedPlaceholder = true
		return 0
	case err != nil:
		pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
		return 0
	default:
		return byte(pv.AsU64() & 0xFF)
	}
}

func (e *Engine) doAssert(pr *passResult, anc []lower.OccurrenceID, lc LC, op lower.Op) {
	v, err := e.eval(anc, lc, op.AssertExpr)
	switch {
	case isDeferredErr(err):
		pr.usedPlaceholder = true
	case err != nil:
		pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
	case !v.IsNumeric():
		pr.diags = pr.diags.Add(diag.TypeMismatch, op.Span, "assert requires a numeric expression")
	case !v.IsTruthy():
		pr.diags = pr.diags.Add(diag.AssertionFailed, op.Span, "assertion failed")
	}
}

func (e *Engine) doPrint(pr *passResult, anc []lower.OccurrenceID, lc LC, op lower.Op) {
	var buf bytes.Buffer
	for _, ex := range op.PrintExprs {
		v, err := e.eval(anc, lc, ex)
		switch {
		case isDeferredErr(err):
			pr.usedPlaceholder = true
			return
		case err != nil:
			pr.diags = pr.diags.Add(errCode(err), op.Span, "%v", err)
			return
		default:
			buf.WriteString(v.String())
		}
	}
	pr.console = append(pr.console, buf.String())
}

func (e *Engine) readFile(path string) ([]byte, error) {
	p := path
	if !filepath.IsAbs(p) && e.baseDir != "" {
		p = filepath.Join(e.baseDir, path)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "wrf %q", path)
	}
	return data, nil
}

func isDeferredErr(err error) bool {
	_, ok := isDeferred(err)
	return ok
}
