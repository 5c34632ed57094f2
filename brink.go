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

// Package brink ties the parser, resolver, lowering pass and evaluation
// engine into the single entry point cmd/brink drives: Compile.
package brink

import (
	"io"
	"path/filepath"

	"github.com/pkg/errors"

	"brink/ast"
	"brink/diag"
	"brink/engine"
	"brink/lower"
	"brink/parser"
	"brink/sema"
	"brink/token"
)

// Result is a successful compile's output, ready for a CLI or test to
// write to disk or compare against a golden file.
type Result struct {
	Image   []byte
	Console []string

	Program *ast.Program
	Symbols *sema.Result
}

// config holds the options a Compile call accumulates; see Option.
type config struct {
	baseDir string
}

// Option configures a Compile call, in the same functional-options shape
// as vm.Option.
type Option func(*config) error

// BaseDir sets the directory `wrf` paths are resolved against when not
// absolute. The default is the directory of the source file passed to
// Compile, when known, or the current working directory otherwise.
func BaseDir(dir string) Option {
	return func(c *config) error { c.baseDir = dir; return nil }
}

// Compile parses, resolves, lowers and evaluates a Brink source file read
// from r, named name for diagnostics. A non-nil error is always a
// diag.Diagnostics batch.
func Compile(name string, r io.Reader, opts ...Option) (*Result, error) {
	cfg := &config{baseDir: filepath.Dir(name)}
	for _, o := range opts {
		if err := o(cfg); err != nil {
			err = errors.Wrap(err, "applying option")
			return nil, diag.Diagnostics{diag.New(diag.Internal, token.Span{}, "%v", err)}
		}
	}

	prog, errs := parser.Parse(name, r)
	if errs.HasErrors() {
		return nil, errs
	}

	res, errs := sema.Resolve(prog)
	if errs.HasErrors() {
		return nil, errs
	}

	lin, errs := lower.Lower(res)
	if errs.HasErrors() {
		return nil, errs
	}

	startAddr := uint64(0)
	if res.Output != nil && res.Output.StartAddr != nil {
		v, err := engine.EvalConstant(res.Output.StartAddr)
		if err != nil {
			return nil, diag.Diagnostics{diag.New(diag.UnresolvedReference, res.Output.StartAddr.Span(), "%v", err)}
		}
		startAddr = v
	}

	out, errs := engine.Run(lin, startAddr, cfg.baseDir)
	if errs.HasErrors() {
		return nil, errs
	}

	return &Result{Image: out.Image, Console: out.Console, Program: prog, Symbols: res}, nil
}
