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

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajroetker/simdlower/target"
)

const testUnit = `
name: cli
target: x86_64
functions:
  - name: double
    operands:
      - {name: a, type: f64x2, lanes: [1.5, -2]}
      - {name: r, type: f64x2}
    calls:
      - {intrinsic: simd_add, args: [a, a], ret: r}
`

const badUnit = `
name: cli
target: x86_64
functions:
  - name: scalar
    operands:
      - {name: x, type: i64, value: 1}
    calls:
      - {intrinsic: simd_neg, args: [x], ret: x, line: 1, col: 1}
`

// setFlags points the command-line flags at a unit written to a temporary
// directory and restores them when the test ends.
func setFlags(t *testing.T, unit, tgt string) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "unit.yaml")
	if err := os.WriteFile(in, []byte(unit), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.clif")

	oldIn, oldOut, oldTarget := *inputFile, *outputFile, *targetName
	t.Cleanup(func() { *inputFile, *outputFile, *targetName = oldIn, oldOut, oldTarget })
	*inputFile, *outputFile, *targetName = in, out, tgt
	return out
}

func TestRun(t *testing.T) {
	out := setFlags(t, testUnit, "")
	if err := run(slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"function %double {", "fadd", "return"} {
		if !strings.Contains(text, want) {
			t.Errorf("output is missing %q:\n%s", want, text)
		}
	}
}

func TestRunTargetHeader(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"", "x86_64"},
		{"s390x", "s390x"},
		{"host", "host"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			out := setFlags(t, testUnit, tt.flag)
			if err := run(slog.New(slog.DiscardHandler)); err != nil {
				t.Fatalf("run: %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(string(data), "\n")
			if len(lines) < 2 || !strings.HasPrefix(lines[0], "; unit: cli (") {
				t.Fatalf("output does not start with the unit header:\n%s", data)
			}
			tgt, err := target.Lookup(tt.want)
			if err != nil {
				t.Fatal(err)
			}
			if got, want := lines[1], "; target: "+tgt.String(); got != want {
				t.Errorf("header = %q, want %q", got, want)
			}
		})
	}
}

func TestRunTargetOverride(t *testing.T) {
	setFlags(t, testUnit, "s390x")
	if err := run(slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("run: %v", err)
	}

	setFlags(t, testUnit, "itanium")
	if err := run(slog.New(slog.DiscardHandler)); err == nil {
		t.Error("run with an unknown target succeeded")
	}
}

func TestRunReportsErrors(t *testing.T) {
	setFlags(t, badUnit, "")
	err := run(slog.New(slog.DiscardHandler))
	if err == nil || !strings.Contains(err.Error(), "compilation reported errors") {
		t.Errorf("run error = %v, want a compilation error", err)
	}
}
