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

// Package parser is a recursive-descent parser turning Brink source into
// an *ast.Program, with the familiar (name, io.Reader) -> (value, error)
// shape of a single-call compile entry point.
package parser

import (
	"io"

	"brink/ast"
	"brink/diag"
	"brink/lexer"
	"brink/token"
)

// Parse reads and parses a complete Brink source file. Parse errors
// short-circuit: the returned Diagnostics has at most one entry.
func Parse(name string, r io.Reader) (*ast.Program, diag.Diagnostics) {
	p := &parser{lex: lexer.New(name, r)}
	return p.parseProgram()
}

// bailout unwinds the recursive descent to parseProgram on the first error,
// the same pattern go/parser uses internally.
type bailout struct{ d diag.Diagnostic }

type parser struct {
	lex  *lexer.Lexer
	tok  token.Token
	peek *token.Token
}

func (p *parser) fail(span token.Span, format string, args ...interface{}) {
	panic(bailout{diag.New(diag.Parse, span, format, args...)})
}

func (p *parser) next() {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return
	}
	t, err := p.lex.Next()
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			p.fail(token.Span{Start: le.Pos, End: le.Pos}, "%s", le.Msg)
		}
		p.fail(token.Span{}, "%s", err.Error())
	}
	p.tok = t
}

func (p *parser) expect(k token.Kind, what string) token.Token {
	if p.tok.Kind != k {
		p.fail(p.tok.Span, "expected %s, got %q", what, p.tok.Text)
	}
	t := p.tok
	p.next()
	return t
}

func (p *parser) parseProgram() (prog *ast.Program, errs diag.Diagnostics) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			errs = diag.Diagnostics{b.d}
			prog = nil
		}
	}()

	prog = &ast.Program{}
	p.next()
	for p.tok.Kind != token.EOF {
		switch p.tok.Kind {
		case token.KwSection:
			prog.Sections = append(prog.Sections, p.parseSection())
		case token.KwOutput:
			prog.Outputs = append(prog.Outputs, p.parseOutput())
		default:
			p.fail(p.tok.Span, "expected 'section' or 'output', got %q", p.tok.Text)
		}
	}
	return prog, nil
}

func (p *parser) parseSection() *ast.Section {
	start := p.tok.Span
	p.next() // 'section'
	name := p.expect(token.Ident, "section name").Text
	p.expect(token.LBrace, "'{'")
	var stmts []ast.Stmt
	for p.tok.Kind != token.RBrace {
		if p.tok.Kind == token.EOF {
			p.fail(p.tok.Span, "unterminated section %q", name)
		}
		if p.tok.Kind == token.Semicolon {
			p.next() // empty statement
			continue
		}
		stmts = append(stmts, p.parseStmt())
	}
	end := p.tok.Span
	p.next() // '}'
	return &ast.Section{Name: name, Stmts: stmts, Span: token.Span{Start: start.Start, End: end.End}}
}

func (p *parser) parseOutput() *ast.Output {
	start := p.tok.Span
	p.next() // 'output'
	name := p.expect(token.Ident, "output section name").Text
	var startAddr ast.Expr
	if p.tok.Kind != token.Semicolon {
		startAddr = p.parseExpr(0)
	}
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	return &ast.Output{Section: name, StartAddr: startAddr, Span: token.Span{Start: start.Start, End: end.End}}
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok.Kind {
	case token.Ident:
		return p.parseLabel()
	case token.KwWrs:
		return p.parseWriteString()
	case token.KwWr:
		return p.parseWriteSection()
	case token.KwWrf:
		return p.parseWriteFile()
	case token.KwWrN:
		return p.parseWriteInt()
	case token.KwAlign:
		return p.parsePad(ast.PadAlign)
	case token.KwSetSec:
		return p.parsePad(ast.PadSetSec)
	case token.KwSetImg:
		return p.parsePad(ast.PadSetImg)
	case token.KwSetAbs:
		return p.parsePad(ast.PadSetAbs)
	case token.KwAssert:
		return p.parseAssert()
	case token.KwPrint:
		return p.parsePrint()
	default:
		p.fail(p.tok.Span, "expected a statement, got %q", p.tok.Text)
		panic("unreachable")
	}
}

func (p *parser) parseLabel() ast.Stmt {
	start := p.tok.Span
	name := p.tok.Text
	p.next()
	end := p.tok.Span
	p.expect(token.Colon, "':'")
	return ast.NewLabelDef(name, token.Span{Start: start.Start, End: end.End})
}

func (p *parser) parseExprList() []ast.Expr {
	exprs := []ast.Expr{p.parseExpr(0)}
	for p.tok.Kind == token.Comma {
		p.next()
		exprs = append(exprs, p.parseExpr(0))
	}
	return exprs
}

func (p *parser) parseWriteString() ast.Stmt {
	start := p.tok.Span
	p.next() // 'wrs'
	exprs := p.parseExprList()
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	w := ast.NewWrite(ast.WriteString, token.Span{Start: start.Start, End: end.End})
	w.Exprs = exprs
	return w
}

func (p *parser) parseWriteSection() ast.Stmt {
	start := p.tok.Span
	p.next() // 'wr'
	name := p.expect(token.Ident, "section name").Text
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	w := ast.NewWrite(ast.WriteSection, token.Span{Start: start.Start, End: end.End})
	w.Section = name
	return w
}

func (p *parser) parseWriteFile() ast.Stmt {
	start := p.tok.Span
	p.next() // 'wrf'
	path := p.expect(token.String, "a file path string").Text
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	w := ast.NewWrite(ast.WriteFile, token.Span{Start: start.Start, End: end.End})
	w.Path = path
	return w
}

func (p *parser) parseWriteInt() ast.Stmt {
	start := p.tok.Span
	width := p.tok.Width
	p.next() // 'wrN'
	val := p.parseExpr(0)
	exprs := []ast.Expr{val}
	if p.tok.Kind == token.Comma {
		p.next()
		exprs = append(exprs, p.parseExpr(0))
	}
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	w := ast.NewWrite(ast.WriteInt, token.Span{Start: start.Start, End: end.End})
	w.Width = width
	w.Exprs = exprs
	return w
}

func (p *parser) parsePad(kind ast.PadKind) ast.Stmt {
	start := p.tok.Span
	p.next() // keyword
	target := p.parseExpr(0)
	var padByte ast.Expr
	if p.tok.Kind == token.Comma {
		p.next()
		padByte = p.parseExpr(0)
	}
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	return ast.NewPad(kind, target, padByte, token.Span{Start: start.Start, End: end.End})
}

func (p *parser) parseAssert() ast.Stmt {
	start := p.tok.Span
	p.next() // 'assert'
	e := p.parseExpr(0)
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	return ast.NewAssert(e, token.Span{Start: start.Start, End: end.End})
}

func (p *parser) parsePrint() ast.Stmt {
	start := p.tok.Span
	p.next() // 'print'
	exprs := p.parseExprList()
	end := p.tok.Span
	p.expect(token.Semicolon, "';'")
	return ast.NewPrint(exprs, token.Span{Start: start.Start, End: end.End})
}

// precedence levels, tightest first: * /; + -; &; |; << >>; comparisons;
// &&; || — encoded here as numeric precedence, higher binds tighter.
func binPrec(k token.Kind) int {
	switch k {
	case token.Star, token.Slash:
		return 7
	case token.Plus, token.Minus:
		return 6
	case token.Amp:
		return 5
	case token.Pipe:
		return 4
	case token.Shl, token.Shr:
		return 3
	case token.Eq, token.Ne, token.Lt, token.Le, token.Gt, token.Ge:
		return 2
	case token.AndAnd:
		return 1
	case token.OrOr:
		return 0
	default:
		return -1
	}
}

func (p *parser) parseExpr(minPrec int) ast.Expr {
	lhs := p.parseUnary()
	for {
		prec := binPrec(p.tok.Kind)
		if prec < minPrec {
			return lhs
		}
		op := p.tok.Kind
		p.next()
		rhs := p.parseExpr(prec + 1)
		lhs = ast.NewBinary(op, lhs, rhs, token.Span{Start: lhs.Span().Start, End: rhs.Span().End})
	}
}

func (p *parser) parseUnary() ast.Expr {
	if p.tok.Kind == token.Minus {
		start := p.tok.Span
		p.next()
		x := p.parseUnary()
		return ast.NewUnary(token.Minus, x, token.Span{Start: start.Start, End: x.Span().End})
	}
	return p.parsePrimary()
}

var argAsIdentBuiltins = map[string]bool{"sizeof": true, "sec": true, "img": true, "abs": true}
var argAsExprBuiltins = map[string]bool{"to_u64": true, "to_i64": true}

func (p *parser) parsePrimary() ast.Expr {
	switch p.tok.Kind {
	case token.LParen:
		p.next()
		e := p.parseExpr(0)
		p.expect(token.RParen, "')'")
		return e
	case token.Int:
		t := p.tok
		p.next()
		digits, suffix := splitSuffix(t.Text)
		return ast.NewIntLit(digits, suffix, t.Span)
	case token.String:
		t := p.tok
		p.next()
		return ast.NewStringLit(t.Text, t.Span)
	case token.Ident:
		return p.parseCall()
	default:
		p.fail(p.tok.Span, "expected an expression, got %q", p.tok.Text)
		panic("unreachable")
	}
}

func (p *parser) parseCall() ast.Expr {
	name := p.tok.Text
	start := p.tok.Span
	p.next()
	if !argAsIdentBuiltins[name] && !argAsExprBuiltins[name] {
		p.fail(start, "unknown builtin %q", name)
	}
	p.expect(token.LParen, "'('")
	var args []ast.Expr
	if argAsIdentBuiltins[name] {
		if p.tok.Kind != token.RParen {
			argTok := p.expect(token.Ident, "an identifier")
			args = append(args, ast.NewIdent(argTok.Text, argTok.Span))
		}
	} else {
		args = append(args, p.parseExpr(0))
	}
	end := p.tok.Span
	p.expect(token.RParen, "')'")
	if argAsExprBuiltins[name] && len(args) != 1 {
		p.fail(start, "%s expects exactly one argument", name)
	}
	return ast.NewCall(name, args, token.Span{Start: start.Start, End: end.End})
}

func splitSuffix(text string) (digits, suffix string) {
	if n := len(text); n > 0 {
		switch text[n-1] {
		case 'u', 'i':
			return text[:n-1], text[n-1:]
		}
	}
	return text, ""
}
