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

// Package ast defines the tree the core consumes: sections, statements and
// expressions, each carrying the token.Span it was parsed from. Nothing in
// this package evaluates or lays out a program; it is pure data, produced
// by package parser and read by packages sema, lower and engine.
package ast

import "brink/token"

// Program is the root of a parsed Brink source file: an unordered set of
// section definitions plus exactly one output statement (enforced by
// package sema, not here — a Program may be parsed with zero or many
// output statements and still be a valid *parse*).
type Program struct {
	Sections []*Section
	Outputs  []*Output
}

// Section is a named, ordered list of statements.
type Section struct {
	Name  string
	Stmts []Stmt
	Span  token.Span
}

// Output is the `output IDENT expr? ;` statement naming the section to
// render and, optionally, the starting absolute address (default 0).
type Output struct {
	Section   string
	StartAddr Expr // nil if omitted
	Span      token.Span
}

// Stmt is implemented by every statement kind.
type Stmt interface {
	Span() token.Span
}

// LabelDef is `IDENT ':'`.
type LabelDef struct {
	Name string
	span token.Span
}

func (s *LabelDef) Span() token.Span { return s.span }

// NewLabelDef constructs a LabelDef; exported for package parser.
func NewLabelDef(name string, span token.Span) *LabelDef { return &LabelDef{name, span} }

// WriteKind distinguishes the four `write` productions.
type WriteKind int

const (
	WriteString WriteKind = iota // wrs expr (',' expr)*
	WriteSection                 // wr IDENT
	WriteFile                    // wrf STRING
	WriteInt                     // wrN expr (',' expr)?
)

// Write covers wrs/wr/wrf/wrN.
type Write struct {
	Kind    WriteKind
	Section string // WriteSection
	Path    string // WriteFile
	Width   int    // WriteInt: bits, 8..64
	Exprs   []Expr // WriteString: values to emit; WriteInt: [value, repeat?]
	span    token.Span
}

func (s *Write) Span() token.Span { return s.span }

func NewWrite(k WriteKind, span token.Span) *Write { return &Write{Kind: k, span: span} }

// PadKind distinguishes align/set_sec/set_img/set_abs.
type PadKind int

const (
	PadAlign PadKind = iota
	PadSetSec
	PadSetImg
	PadSetAbs
)

// Pad covers align/set_sec/set_img/set_abs.
type Pad struct {
	Kind    PadKind
	Target  Expr // alignment or target position
	PadByte Expr // nil if omitted (defaults to 0)
	span    token.Span
}

func (s *Pad) Span() token.Span { return s.span }

func NewPad(k PadKind, target, padByte Expr, span token.Span) *Pad {
	return &Pad{Kind: k, Target: target, PadByte: padByte, span: span}
}

// Assert is `assert expr ;`.
type Assert struct {
	Expr Expr
	span token.Span
}

func (s *Assert) Span() token.Span { return s.span }

func NewAssert(e Expr, span token.Span) *Assert { return &Assert{e, span} }

// Print is `print expr (',' expr)* ;`.
type Print struct {
	Exprs []Expr
	span  token.Span
}

func (s *Print) Span() token.Span { return s.span }

func NewPrint(exprs []Expr, span token.Span) *Print { return &Print{exprs, span} }

// Expr is implemented by every expression kind.
type Expr interface {
	Span() token.Span
}

// IntLit is an integer literal, carrying its literal suffix: "" (flexible
// Integer), "u" (U64) or "i" (I64). Digits is the source text with any
// underscores and base prefix intact; package engine parses it.
type IntLit struct {
	Digits string
	Suffix string
	span   token.Span
}

func (e *IntLit) Span() token.Span { return e.span }

func NewIntLit(digits, suffix string, span token.Span) *IntLit {
	return &IntLit{Digits: digits, Suffix: suffix, span: span}
}

// StringLit is a quoted string literal with escapes already decoded.
type StringLit struct {
	Value string
	span  token.Span
}

func (e *StringLit) Span() token.Span { return e.span }

func NewStringLit(v string, span token.Span) *StringLit { return &StringLit{v, span} }

// Unary is a prefix operator application. Op is token.Minus.
type Unary struct {
	Op   token.Kind
	X    Expr
	span token.Span
}

func (e *Unary) Span() token.Span { return e.span }

func NewUnary(op token.Kind, x Expr, span token.Span) *Unary { return &Unary{op, x, span} }

// Binary is a binary operator application.
type Binary struct {
	Op   token.Kind
	X, Y Expr
	span token.Span
}

func (e *Binary) Span() token.Span { return e.span }

func NewBinary(op token.Kind, x, y Expr, span token.Span) *Binary {
	return &Binary{op, x, y, span}
}

// Call is a builtin function application: to_u64, to_i64, sizeof, abs,
// img, sec. Args has length 0 (zero-arg abs/img/sec) or 1.
type Call struct {
	Name string
	Args []Expr
	span token.Span
}

func (e *Call) Span() token.Span { return e.span }

func NewCall(name string, args []Expr, span token.Span) *Call { return &Call{name, args, span} }

// Ident is a bare identifier used as a builtin argument (a section or
// label name), e.g. the `foo` in `sizeof(foo)`.
type Ident struct {
	Name string
	span token.Span
}

func (e *Ident) Span() token.Span { return e.span }

func NewIdent(name string, span token.Span) *Ident { return &Ident{name, span} }
