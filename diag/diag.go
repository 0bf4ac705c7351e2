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

// Package diag records compiler diagnostics attached to source locations.
package diag

import (
	"fmt"
	"slices"
	"sync"
)

// Severity is the severity of a diagnostic.
type Severity int

const (
	// Warning reports a problem that does not stop compilation.
	Warning Severity = iota

	// Error reports a problem in one call; compilation continues so that
	// further diagnostics can surface, but the unit will not be emitted.
	Error

	// Fatal reports a problem that ends compilation of the whole unit.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// Span is a source location.
type Span struct {
	File string
	Line int
	Col  int
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	switch {
	case s.IsZero():
		return "<unknown>"
	case s.Col > 0:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
	default:
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
}

// Diagnostic is a single reported message.
type Diagnostic struct {
	Severity Severity
	Span     Span
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// Collector is a Sink that keeps every diagnostic in report order. It is
// safe for concurrent use, although each function compilation normally owns
// its own Collector.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of the collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.diags)
}

// Count returns the number of diagnostics with severity at least atLeast.
func (c *Collector) Count(atLeast Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diags {
		if d.Severity >= atLeast {
			n++
		}
	}
	return n
}

// HasErrors reports whether an Error or Fatal diagnostic was collected.
func (c *Collector) HasErrors() bool {
	return c.Count(Error) > 0
}

// Warnf reports a warning to s.
func Warnf(s Sink, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: Warning, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Errorf reports an error to s.
func Errorf(s Sink, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: Error, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Fatalf reports a fatal diagnostic to s.
func Fatalf(s Sink, span Span, format string, args ...any) {
	s.Report(Diagnostic{Severity: Fatal, Span: span, Message: fmt.Sprintf(format, args...)})
}
