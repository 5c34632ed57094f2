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

package brink_test

import (
	"os"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"brink"
	"brink/diag"
	"brink/internal/scenario"
)

func TestScenarios(t *testing.T) {
	raw, err := os.ReadFile("testdata/scenarios.md")
	be.Err(t, err, nil)

	scenarios, err := scenario.Extract(string(raw))
	be.Err(t, err, nil)
	be.True(t, len(scenarios) > 0)

	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			res, err := brink.Compile(sc.Name+".brink", strings.NewReader(sc.Source))

			if sc.WantErrCode != "" {
				ds, ok := err.(diag.Diagnostics)
				be.True(t, ok)
				be.True(t, ds.HasErrors())
				be.Equal(t, string(ds[0].Code), sc.WantErrCode)
				return
			}

			be.Err(t, err, nil)
			if sc.HasImage {
				be.Equal(t, len(res.Image), len(sc.WantImage))
				for i := range sc.WantImage {
					be.Equal(t, res.Image[i], sc.WantImage[i])
				}
			}
			if sc.HasConsole {
				be.Equal(t, strings.Join(res.Console, ""), sc.WantConsole)
			}
		})
	}
}
