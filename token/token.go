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

// Package token defines the lexical tokens and source positions shared by
// the lexer, parser and every later compiler stage.
package token

import "fmt"

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	String

	// keywords
	KwSection
	KwOutput
	KwAlign
	KwSetSec
	KwSetImg
	KwSetAbs
	KwAssert
	KwPrint
	KwWr
	KwWrs
	KwWrf
	KwWrN // wr8, wr16, ..., wr64 — Width holds the bit width.

	// builtins used as call targets are tokenized as Ident; the recognized
	// set is argAsIdentBuiltins/argAsExprBuiltins in package parser

	// punctuation / operators
	LBrace
	RBrace
	LParen
	RParen
	Semicolon
	Comma
	Colon

	Plus
	Minus
	Star
	Slash
	Amp
	Pipe
	Shl
	Shr
	AndAnd
	OrOr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

// Position is a single point in a source file.
type Position struct {
	Filename string
	Offset   int // byte offset, 0-based
	Line     int // 1-based
	Column   int // 1-based, in bytes
}

func (p Position) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string { return s.Start.String() }

// Token is a single lexical token.
type Token struct {
	Kind  Kind
	Text  string // raw text for Ident/Int/String; keyword spelling otherwise
	Width int    // for KwWrN, the bit width (8..64)
	Span  Span
}

var keywords = map[string]Kind{
	"section":  KwSection,
	"output":   KwOutput,
	"align":    KwAlign,
	"set_sec":  KwSetSec,
	"set_img":  KwSetImg,
	"set_abs":  KwSetAbs,
	"assert":   KwAssert,
	"print":    KwPrint,
	"wr":       KwWr,
	"wrs":      KwWrs,
	"wrf":      KwWrf,
}

// Lookup classifies an identifier-shaped token as a keyword, a wrN write
// directive, or a plain identifier.
func Lookup(ident string) (Kind, int) {
	if k, ok := keywords[ident]; ok {
		return k, 0
	}
	if w, ok := widthOf(ident); ok {
		return KwWrN, w
	}
	return Ident, 0
}

func widthOf(ident string) (int, bool) {
	if len(ident) < 3 || ident[0] != 'w' || ident[1] != 'r' {
		return 0, false
	}
	n := 0
	for _, c := range ident[2:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	switch n {
	case 8, 16, 24, 32, 40, 48, 56, 64:
		return n, true
	default:
		return 0, false
	}
}
