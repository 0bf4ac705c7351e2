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
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSpanString(t *testing.T) {
	tests := []struct {
		span Span
		want string
	}{
		{Span{}, "<unknown>"},
		{Span{File: "a.yaml", Line: 3, Col: 7}, "a.yaml:3:7"},
		{Span{File: "a.yaml", Line: 3}, "a.yaml:3"},
	}
	for _, tt := range tests {
		if got := tt.span.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.span, got, tt.want)
		}
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	span := Span{File: "u.yaml", Line: 1, Col: 2}
	Warnf(&c, span, "lane %d", 3)
	if c.HasErrors() {
		t.Fatal("HasErrors after a warning")
	}
	Errorf(&c, span, "bad type `%s`", "i32")
	Fatalf(&c, Span{}, "stop")

	want := []Diagnostic{
		{Severity: Warning, Span: span, Message: "lane 3"},
		{Severity: Error, Span: span, Message: "bad type `i32`"},
		{Severity: Fatal, Message: "stop"},
	}
	if diff := cmp.Diff(want, c.Diagnostics()); diff != "" {
		t.Errorf("Diagnostics mismatch (-want +got):\n%s", diff)
	}
	if !c.HasErrors() {
		t.Error("HasErrors = false after an error")
	}
	for sev, n := range map[Severity]int{Warning: 3, Error: 2, Fatal: 1} {
		if got := c.Count(sev); got != n {
			t.Errorf("Count(%s) = %d, want %d", sev, got, n)
		}
	}

	got := c.Diagnostics()
	got[0].Message = "changed"
	if c.Diagnostics()[0].Message != "lane 3" {
		t.Error("Diagnostics returned the internal slice")
	}
}

func TestCollectorConcurrent(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				Warnf(&c, Span{}, "w")
			}
		}()
	}
	wg.Wait()
	if got := c.Count(Warning); got != 800 {
		t.Errorf("Count = %d, want 800", got)
	}
}

func TestPrinter(t *testing.T) {
	d := Diagnostic{Severity: Error, Span: Span{File: "f.yaml", Line: 2, Col: 5}, Message: "boom"}

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintAll([]Diagnostic{d, {Severity: Warning, Message: "careful"}})
	want := "f.yaml:2:5: error: boom\n<unknown>: warning: careful\n"
	if got := buf.String(); got != want {
		t.Errorf("plain output = %q, want %q", got, want)
	}

	buf.Reset()
	p.SetColor(true)
	p.Report(d)
	got := buf.String()
	if !strings.Contains(got, ansiRed+"error:") || !strings.HasSuffix(got, " boom\n") {
		t.Errorf("colored output = %q", got)
	}
}
