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

package engine_test

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"brink/diag"
	"brink/engine"
	"brink/lower"
	"brink/parser"
	"brink/sema"
)

func compileToEngine(t *testing.T, src string, startAddr uint64) (*engine.Result, diag.Diagnostics) {
	t.Helper()
	prog, errs := parser.Parse("test", strings.NewReader(src))
	be.Equal(t, errs.HasErrors(), false)
	res, errs := sema.Resolve(prog)
	be.Equal(t, errs.HasErrors(), false)
	lin, errs := lower.Lower(res)
	be.Equal(t, errs.HasErrors(), false)
	return engine.Run(lin, startAddr, ".")
}

func TestRun_helloSelfReferentialSizeof(t *testing.T) {
	// S1
	out, errs := compileToEngine(t, `section foo { wrs "Hello World!\n"; assert sizeof(foo) == 13; } output foo;`, 0)
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, string(out.Image), "Hello World!\n")
}

func TestRun_multiWidthWrites(t *testing.T) {
	// S3
	out, errs := compileToEngine(t, `section foo { wr8 0xAA; wr32 0x11223344; wr16 0xFF00, 3; } output foo;`, 0)
	be.Equal(t, errs.HasErrors(), false)
	want := []byte{0xAA, 0x44, 0x33, 0x22, 0x11, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF}
	be.Equal(t, len(out.Image), len(want))
	for i := range want {
		be.Equal(t, out.Image[i], want[i])
	}
}

func TestRun_setSecPadding(t *testing.T) {
	// S4
	src := `section foo {
		wr8 1; wr8 2; wr8 3; wr8 4; wr8 5;
		set_sec 16;
		wr8 0xAA, 3;
		set_sec 24, 0xFF;
	} output foo;`
	out, errs := compileToEngine(t, src, 0)
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, len(out.Image), 24)
	want := []byte{1, 2, 3, 4, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xAA, 0xAA, 0xAA, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	for i := range want {
		be.Equal(t, out.Image[i], want[i])
	}
}

func TestRun_typeMismatchAtComparison(t *testing.T) {
	// S5
	_, errs := compileToEngine(t, `section foo { assert 42u == 42i; } output foo;`, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.TypeMismatch)
}

func TestRun_printFormatting(t *testing.T) {
	// S6
	out, errs := compileToEngine(t, `section foo { print abs(), " ", to_i64(sizeof(foo)), "\n"; wrs "ab"; } output foo;`, 0x10)
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, len(out.Console), 1)
	be.Equal(t, out.Console[0], "0x10 2\n")
	be.Equal(t, string(out.Image), "ab")
}

func TestRun_backwardMotionIsError(t *testing.T) {
	_, errs := compileToEngine(t, `section foo { wr8 1; wr8 2; set_sec 0; } output foo;`, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.BackwardMotion)
}

func TestRun_alignZeroIsBadAlignment(t *testing.T) {
	_, errs := compileToEngine(t, `section foo { align 0; } output foo;`, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.BadAlignment)
}

func TestRun_alignPadsToBoundary(t *testing.T) {
	out, errs := compileToEngine(t, `section foo { wr8 1; align 4; wr8 2; } output foo;`, 0)
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, len(out.Image), 5)
	be.Equal(t, out.Image[0], byte(1))
	be.Equal(t, out.Image[4], byte(2))
}

func TestRun_ambiguousAbsMultipleOccurrencesIsOutOfScope(t *testing.T) {
	src := `
		section child { wr8 1; }
		section foo { wr child; wr child; assert abs(child) == 0; }
		output foo;`
	_, errs := compileToEngine(t, src, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.OutOfScope)
}

func TestRun_secOutsideCurrentOccurrenceIsOutOfScope(t *testing.T) {
	src := `
		section sibling { wr8 1; }
		section foo { assert sec(sibling) == 0; }
		output foo;`
	_, errs := compileToEngine(t, src, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.OutOfScope)
}

func TestRun_sizeofWithNoArgIsOutOfScope(t *testing.T) {
	src := `section foo { assert sizeof() == 0; } output foo;`
	_, errs := compileToEngine(t, src, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.OutOfScope)
}

func TestRun_forwardLabelReferenceResolves(t *testing.T) {
	src := `section foo {
		assert img(there) == 1;
		wr8 0xAA;
		there:
		wr8 0xBB;
	} output foo;`
	out, errs := compileToEngine(t, src, 0)
	be.Equal(t, errs.HasErrors(), false)
	be.Equal(t, len(out.Image), 2)
}

func TestRun_wrfMissingFileIsFileIO(t *testing.T) {
	_, errs := compileToEngine(t, `section foo { wrf "does-not-exist.bin"; } output foo;`, 0)
	be.True(t, errs.HasErrors())
	be.Equal(t, errs[0].Code, diag.FileIO)
}
