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

package parser_test

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"brink/ast"
	"brink/parser"
	"brink/token"
)

func TestParse_sectionAndOutput(t *testing.T) {
	src := `section foo { wrs "hi"; } output foo;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, len(prog.Sections), 1)
	be.Equal(t, prog.Sections[0].Name, "foo")
	be.Equal(t, len(prog.Outputs), 1)
	be.Equal(t, prog.Outputs[0].Section, "foo")
	be.True(t, prog.Outputs[0].StartAddr == nil)
}

func TestParse_outputWithStartAddr(t *testing.T) {
	src := `section foo { } output foo 0x1000;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	be.True(t, prog.Outputs[0].StartAddr != nil)
	lit, ok := prog.Outputs[0].StartAddr.(*ast.IntLit)
	be.True(t, ok)
	be.Equal(t, lit.Digits, "0x1000")
}

func TestParse_writeVariants(t *testing.T) {
	src := `section foo {
		wrs "a", "b";
		wr8 1;
		wr16 2, 3;
		wrf "data.bin";
		wr bar;
	}
	section bar { }
	output foo;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	stmts := prog.Sections[0].Stmts
	be.Equal(t, len(stmts), 5)

	w0 := stmts[0].(*ast.Write)
	be.Equal(t, w0.Kind, ast.WriteString)
	be.Equal(t, len(w0.Exprs), 2)

	w1 := stmts[1].(*ast.Write)
	be.Equal(t, w1.Kind, ast.WriteInt)
	be.Equal(t, w1.Width, 8)
	be.Equal(t, len(w1.Exprs), 1)

	w2 := stmts[2].(*ast.Write)
	be.Equal(t, w2.Kind, ast.WriteInt)
	be.Equal(t, w2.Width, 16)
	be.Equal(t, len(w2.Exprs), 2)

	w3 := stmts[3].(*ast.Write)
	be.Equal(t, w3.Kind, ast.WriteFile)
	be.Equal(t, w3.Path, "data.bin")

	w4 := stmts[4].(*ast.Write)
	be.Equal(t, w4.Kind, ast.WriteSection)
	be.Equal(t, w4.Section, "bar")
}

func TestParse_labelPadAssertPrint(t *testing.T) {
	src := `section foo {
		here:
		align 4;
		set_sec 16, 0xFF;
		assert sizeof(foo) == 16;
		print "x", abs();
	}
	output foo;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	stmts := prog.Sections[0].Stmts
	be.Equal(t, len(stmts), 5)

	lbl := stmts[0].(*ast.LabelDef)
	be.Equal(t, lbl.Name, "here")

	align := stmts[1].(*ast.Pad)
	be.Equal(t, align.Kind, ast.PadAlign)
	be.True(t, align.PadByte == nil)

	setSec := stmts[2].(*ast.Pad)
	be.Equal(t, setSec.Kind, ast.PadSetSec)
	be.True(t, setSec.PadByte != nil)

	assert := stmts[3].(*ast.Assert)
	be.True(t, assert.Expr != nil)

	print := stmts[4].(*ast.Print)
	be.Equal(t, len(print.Exprs), 2)
}

func TestParse_precedence(t *testing.T) {
	src := `section foo { assert 1 + 2 * 3 == 7; } output foo;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	a := prog.Sections[0].Stmts[0].(*ast.Assert)
	top := a.Expr.(*ast.Binary)
	be.Equal(t, top.Op, token.Eq)
	lhs := top.X.(*ast.Binary)
	be.Equal(t, lhs.Op, token.Plus)
	rhs := lhs.Y.(*ast.Binary)
	be.Equal(t, rhs.Op, token.Star)
}

func TestParse_unaryMinus(t *testing.T) {
	src := `section foo { assert -1 == to_i64(1); } output foo;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	a := prog.Sections[0].Stmts[0].(*ast.Assert)
	eq := a.Expr.(*ast.Binary)
	u := eq.X.(*ast.Unary)
	be.Equal(t, u.Op, token.Minus)
}

func TestParse_builtinsIdentVsExprArgs(t *testing.T) {
	src := `section foo { print sizeof(foo), to_u64(1), sec(foo), img(), abs(foo); } output foo;`
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	pr := prog.Sections[0].Stmts[0].(*ast.Print)
	be.Equal(t, len(pr.Exprs), 5)

	c0 := pr.Exprs[0].(*ast.Call)
	be.Equal(t, c0.Name, "sizeof")
	id0 := c0.Args[0].(*ast.Ident)
	be.Equal(t, id0.Name, "foo")

	c1 := pr.Exprs[1].(*ast.Call)
	be.Equal(t, c1.Name, "to_u64")
	_, ok := c1.Args[0].(*ast.IntLit)
	be.True(t, ok)

	c3 := pr.Exprs[3].(*ast.Call)
	be.Equal(t, c3.Name, "img")
	be.Equal(t, len(c3.Args), 0)
}

func TestParse_errorMissingSemicolon(t *testing.T) {
	_, errs := parser.Parse("test", strings.NewReader(`section foo { wr8 1 }`))
	be.True(t, errs.HasErrors())
}

func TestParse_errorUnknownBuiltin(t *testing.T) {
	_, errs := parser.Parse("test", strings.NewReader(`section foo { assert nope(foo); } output foo;`))
	be.True(t, errs.HasErrors())
}

func TestParse_errorShortCircuitsToOneDiagnostic(t *testing.T) {
	_, errs := parser.Parse("test", strings.NewReader(`section foo { wr8 1 wr8 2 wr8 3 } output foo;`))
	be.Equal(t, len(errs), 1)
}

func TestParse_emptyStatement(t *testing.T) {
	prog, errs := parser.Parse("test", strings.NewReader(`section foo { ;; } output foo;`))
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, len(prog.Sections[0].Stmts), 0)
}
