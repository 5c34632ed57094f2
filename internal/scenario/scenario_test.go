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

package scenario_test

import (
	"testing"

	"github.com/nalgeon/be"

	"brink/internal/scenario"
)

func TestExtract_imageAndConsole(t *testing.T) {
	md := "## Scenario: one\n" +
		"```brink\n" +
		"section foo { wrs \"ab\"; } output foo;\n" +
		"```\n" +
		"```image\n" +
		"61 62\n" +
		"```\n"

	scenarios, err := scenario.Extract(md)
	be.Err(t, err, nil)
	be.Equal(t, len(scenarios), 1)
	be.Equal(t, scenarios[0].Name, "one")
	be.True(t, scenarios[0].HasImage)
	be.Equal(t, len(scenarios[0].WantImage), 2)
	be.Equal(t, scenarios[0].WantImage[0], byte(0x61))
}

func TestExtract_errorFence(t *testing.T) {
	md := "## Scenario: bad\n" +
		"```brink\n" +
		"section a { wr b; } output a;\n" +
		"```\n" +
		"```error\n" +
		"cycle\n" +
		"```\n"

	scenarios, err := scenario.Extract(md)
	be.Err(t, err, nil)
	be.Equal(t, scenarios[0].WantErrCode, "cycle")
}

func TestExtract_missingSourceFenceIsError(t *testing.T) {
	md := "## Scenario: incomplete\n" +
		"```image\n" +
		"00\n" +
		"```\n"
	_, err := scenario.Extract(md)
	be.True(t, err != nil)
}

func TestExtract_multipleScenarios(t *testing.T) {
	md := "## Scenario: first\n" +
		"```brink\n" +
		"section foo { wr8 1; } output foo;\n" +
		"```\n" +
		"```image\n" +
		"01\n" +
		"```\n" +
		"## Scenario: second\n" +
		"```brink\n" +
		"section foo { wr8 2; } output foo;\n" +
		"```\n" +
		"```image\n" +
		"02\n" +
		"```\n"
	scenarios, err := scenario.Extract(md)
	be.Err(t, err, nil)
	be.Equal(t, len(scenarios), 2)
	be.Equal(t, scenarios[0].Name, "first")
	be.Equal(t, scenarios[1].Name, "second")
}
