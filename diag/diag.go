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

// Package diag defines Brink's user-visible diagnostics: a stable Code, a
// message and a source Span. Diagnostics is a named slice implementing
// error, so that a compile pipeline can batch as many independent
// diagnostics as possible instead of stopping at the first one.
package diag

import (
	"fmt"
	"strings"

	"brink/token"
)

// Code is a stable, user-visible diagnostic category.
type Code string

const (
	Parse               Code = "parse"
	DuplicateName       Code = "duplicate-name"
	MissingOutput       Code = "missing-output"
	MultipleOutput      Code = "multiple-output"
	UndefinedIdentifier Code = "undefined-identifier"
	OutOfScope          Code = "out-of-scope"
	Cycle               Code = "cycle"
	TypeMismatch        Code = "type-mismatch"
	ArithOverflow       Code = "arith-overflow"
	DivZero             Code = "div-zero"
	BackwardMotion      Code = "backward-motion"
	BadAlignment        Code = "bad-alignment"
	FileIO              Code = "file-io"
	AssertionFailed     Code = "assertion-failed"
	UnresolvedReference Code = "unresolved-reference"
	Internal            Code = "internal"
)

// Diagnostic is a single user-visible error or warning.
type Diagnostic struct {
	Code    Code       `yaml:"code"`
	Message string     `yaml:"message"`
	Span    token.Span `yaml:"span"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.Start, d.Code, d.Message)
}

// New constructs a Diagnostic.
func New(code Code, span token.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Span: span}
}

// Diagnostics is a batch of diagnostics. A non-empty Diagnostics implements
// error so it can be returned directly from a pipeline stage.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether the batch is non-empty.
func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }

// Add appends a new diagnostic and returns the updated slice, mirroring the
// append-and-reassign idiom used throughout the compiler stages.
func (ds Diagnostics) Add(code Code, span token.Span, format string, args ...interface{}) Diagnostics {
	return append(ds, New(code, span, format, args...))
}
