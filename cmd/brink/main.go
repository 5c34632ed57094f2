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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"brink"
	"brink/diag"
	"brink/internal/errio"
)

var (
	outFileName string
	reportFmt   string
	dumpLayout  bool
	debug       bool
)

func atExit(err error) {
	if err == nil {
		return
	}
	if ds, ok := err.(diag.Diagnostics); ok {
		emitReport(ds)
		os.Exit(1)
	}
	if debug {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(1)
}

func emitReport(ds diag.Diagnostics) {
	switch reportFmt {
	case "yaml":
		b, err := yaml.Marshal(ds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "internal: marshalling diagnostics: %v\n", err)
			return
		}
		os.Stderr.Write(b)
	default:
		fmt.Fprintln(os.Stderr, ds.Error())
	}
}

func main() {
	var err error

	flag.StringVar(&outFileName, "o", "output.bin", "write the compiled image to `filename`")
	flag.StringVar(&reportFmt, "report", "text", "diagnostic report format: `text` or `yaml`")
	flag.BoolVar(&dumpLayout, "dump-layout", false, "after compiling, print the program's sections and output target instead of writing the image")
	flag.BoolVar(&debug, "debug", false, "include a full error trace on unexpected failures")
	flag.Parse()

	defer func() { atExit(err) }()

	if flag.NArg() != 1 {
		err = fmt.Errorf("usage: brink <source.brink> [-o output_path]")
		return
	}
	srcPath := flag.Arg(0)

	f, oerr := os.Open(srcPath)
	if oerr != nil {
		err = oerr
		return
	}
	defer f.Close()

	var result *brink.Result
	result, err = brink.Compile(srcPath, f)
	if err != nil {
		return
	}

	if dumpLayout {
		dumpProgramLayout(result)
		return
	}

	stdout := errio.New(os.Stdout)
	for _, line := range result.Console {
		fmt.Fprint(stdout, line)
	}
	if stdout.Err != nil {
		err = stdout.Err
		return
	}

	err = os.WriteFile(outFileName, result.Image, 0644)
}

func dumpProgramLayout(result *brink.Result) {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, s := range result.Program.Sections {
		fmt.Fprintf(w, "section %s (%d statements)\n", s.Name, len(s.Stmts))
	}
	if result.Symbols.Output != nil {
		fmt.Fprintf(w, "output %s\n", result.Symbols.Output.Section)
	}
}
