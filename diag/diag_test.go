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

package diag_test

import (
	"testing"

	"github.com/nalgeon/be"

	"brink/diag"
	"brink/token"
)

func TestDiagnostics_errorJoinsLines(t *testing.T) {
	var ds diag.Diagnostics
	ds = ds.Add(diag.Parse, token.Span{}, "bad token %q", "}")
	ds = ds.Add(diag.Cycle, token.Span{}, "section %q writes itself", "foo")
	be.Equal(t, len(ds), 2)
	be.True(t, ds.HasErrors())

	var err error = ds
	be.True(t, err != nil)
	be.Equal(t, err.Error(), "0:0: parse: bad token \"}\"\n0:0: cycle: section \"foo\" writes itself")
}

func TestDiagnostics_emptyHasNoErrors(t *testing.T) {
	var ds diag.Diagnostics
	be.Equal(t, ds.HasErrors(), false)
}

func TestDiagnostic_stringIncludesPositionCodeMessage(t *testing.T) {
	sp := token.Span{Start: token.Position{Filename: "x.brink", Line: 2, Column: 5}}
	d := diag.New(diag.TypeMismatch, sp, "cannot mix %s and %s", "U64", "I64")
	s := d.String()
	be.True(t, s == "x.brink:2:5: type-mismatch: cannot mix U64 and I64")
}
