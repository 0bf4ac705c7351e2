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

package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiPurple = "\033[35m"
)

// Printer writes diagnostics as "file:line:col: severity: message" lines.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a Printer writing to w. Color is enabled when w is a
// terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: isTerminal(w) && os.Getenv("NO_COLOR") == ""}
}

// SetColor forces color on or off.
func (p *Printer) SetColor(on bool) {
	p.color = on
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report implements Sink by printing d immediately.
func (p *Printer) Report(d Diagnostic) {
	p.Print(d)
}

// Print writes one diagnostic.
func (p *Printer) Print(d Diagnostic) {
	if !p.color {
		fmt.Fprintln(p.w, d.String())
		return
	}
	color := ansiYellow
	switch d.Severity {
	case Error:
		color = ansiRed
	case Fatal:
		color = ansiPurple
	}
	fmt.Fprintf(p.w, "%s%s:%s %s%s:%s %s\n", ansiBold, d.Span, ansiReset, color, d.Severity, ansiReset, d.Message)
}

// PrintAll writes every diagnostic in order.
func (p *Printer) PrintAll(diags []Diagnostic) {
	for _, d := range diags {
		p.Print(d)
	}
}
