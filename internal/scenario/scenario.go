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

// Package scenario extracts the golden end-to-end test cases in
// testdata/scenarios.md: a "## Scenario: <name>" heading followed by a
// fenced `brink` source block and one or more fenced `image`/`console`/
// `error` expectation blocks. Grounded on strager-Zong/sexy's
// ExtractTestCases: walk the goldmark AST, bucket fenced code blocks by
// language under the heading that precedes them.
package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Scenario is one golden compile case.
type Scenario struct {
	Name string

	Source string

	WantImage   []byte // nil if no `image` fence was present
	HasImage    bool
	WantConsole string // concatenation of all `console` fence contents
	HasConsole  bool
	WantErrCode string // diag.Code spelling from an `error` fence, "" on success
}

const headingPrefix = "Scenario: "

// Extract parses markdown and returns every scenario it defines, in
// document order.
func Extract(markdown string) ([]Scenario, error) {
	md := goldmark.New()
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var scenarios []Scenario
	var cur *Scenario

	err := gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gast.Heading:
			heading := textOf(node, source)
			if !strings.HasPrefix(heading, headingPrefix) {
				return gast.WalkContinue, nil
			}
			if cur != nil {
				if err := validate(cur); err != nil {
					return gast.WalkStop, err
				}
				scenarios = append(scenarios, *cur)
			}
			cur = &Scenario{Name: strings.TrimPrefix(heading, headingPrefix)}

		case *gast.FencedCodeBlock:
			lang := string(node.Language(source))
			content := contentOf(node, source)
			if cur == nil {
				return gast.WalkContinue, nil
			}
			switch lang {
			case "brink":
				cur.Source = content
			case "image":
				img, err := parseHex(content)
				if err != nil {
					return gast.WalkStop, errors.Wrapf(err, "scenario %q: image fence", cur.Name)
				}
				cur.WantImage = img
				cur.HasImage = true
			case "console":
				cur.WantConsole = content
				cur.HasConsole = true
			case "error":
				cur.WantErrCode = strings.TrimSpace(content)
			}
		}
		return gast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if cur != nil {
		if err := validate(cur); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *cur)
	}
	return scenarios, nil
}

func validate(s *Scenario) error {
	if s.Source == "" {
		return fmt.Errorf("scenario %q: missing a brink fence", s.Name)
	}
	if !s.HasImage && !s.HasConsole && s.WantErrCode == "" {
		return fmt.Errorf("scenario %q: no image/console/error expectation", s.Name)
	}
	return nil
}

func textOf(n gast.Node, source []byte) string {
	var sb strings.Builder
	gast.Walk(n, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*gast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return gast.WalkContinue, nil
	})
	return sb.String()
}

func contentOf(n *gast.FencedCodeBlock, source []byte) string {
	var sb strings.Builder
	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		sb.Write(line.Value(source))
	}
	return sb.String()
}

func parseHex(content string) ([]byte, error) {
	fields := strings.Fields(content)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "byte %q", f)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
