// Copyright 2025 go-highway Authors
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

// Command simdlower lowers the SIMD intrinsic calls of a unit file to scalar
// instructions and prints the result.
//
// Usage:
//
//	simdlower -input unit.yaml                    # print lowered functions
//	simdlower -input unit.yaml -output out.clif   # write them to a file
//	simdlower -input unit.yaml -target s390x -run # execute on a big-endian target
//
// Diagnostics go to stderr. The exit status is 1 when any error is reported.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ajroetker/simdlower/diag"
	"github.com/ajroetker/simdlower/driver"
	"github.com/ajroetker/simdlower/ir"
	"github.com/ajroetker/simdlower/target"
)

var (
	inputFile  = flag.String("input", "", "Input unit file (required)")
	outputFile = flag.String("output", "", "Output file for the lowered functions (default: stdout)")
	targetName = flag.String("target", "", "Target ("+strings.Join(target.Names, ",")+"); overrides the unit's target")
	workers    = flag.Int("workers", 0, "Functions lowered concurrently (default: GOMAXPROCS)")
	runMode    = flag.Bool("run", false, "Execute each function and print its operands")
	verbose    = flag.Bool("v", false, "Verbose logging")
)

func main() {
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	unit, err := driver.LoadUnit(*inputFile)
	if err != nil {
		return err
	}
	opts := driver.Options{Workers: *workers, Logger: logger}
	if *targetName != "" {
		t, err := target.Lookup(*targetName)
		if err != nil {
			return err
		}
		opts.Target = &t
	}

	res, err := driver.Compile(context.Background(), unit, opts)
	if res != nil {
		diag.NewPrinter(os.Stderr).PrintAll(res.Diagnostics())
	}
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	fmt.Fprintf(out, "; unit: %s (%s)\n; target: %s\n\n", unit.Name, unit.ID, res.Target)
	for _, fr := range res.Funcs {
		fmt.Fprintln(out, ir.Format(fr.Func))
	}

	if *runMode {
		for _, fr := range res.Funcs {
			outs, err := driver.Run(fr)
			fmt.Printf("%s:\n", fr.Name)
			for _, o := range outs {
				fmt.Printf("  %s\n", o)
			}
			if err != nil {
				fmt.Printf("  %v\n", err)
			}
		}
	}

	if res.HasErrors() {
		return fmt.Errorf("%s: compilation reported errors", unit.Name)
	}
	return nil
}
