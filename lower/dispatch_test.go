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

package lower

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/simdlower/diag"
	"github.com/ajroetker/simdlower/ir"
)

func TestParseIntrinsic(t *testing.T) {
	tests := []struct {
		name string
		want Intrinsic
	}{
		{"simd_add", Intrinsic{Op: OpAdd, Name: "simd_add"}},
		{"simd_reduce_add_ordered", Intrinsic{Op: OpReduceAddOrdered, Name: "simd_reduce_add_ordered"}},
		{"simd_shuffle", Intrinsic{Op: OpShuffle, Name: "simd_shuffle"}},
		{"simd_shuffle16", Intrinsic{Op: OpShuffle, Name: "simd_shuffle16", ShuffleLanes: 16}},
		{"simd_shuffle0", Intrinsic{Op: OpUnknown, Name: "simd_shuffle0"}},
		{"simd_shuffle+4", Intrinsic{Op: OpUnknown, Name: "simd_shuffle+4"}},
		{"simd_shufflex", Intrinsic{Op: OpUnknown, Name: "simd_shufflex"}},
		{"simd_bitmask", Intrinsic{Op: OpBitmask, Name: "simd_bitmask"}},
		{"simd_unknown", Intrinsic{Op: OpUnknown, Name: "simd_unknown"}},
		{"add", Intrinsic{Op: OpUnknown, Name: "add"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseIntrinsic(tt.name)); diff != "" {
				t.Errorf("ParseIntrinsic(%q) mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestOpTable(t *testing.T) {
	for op := OpUnknown + 1; op < numOps; op++ {
		name := IntrinsicPrefix + op.String()
		if got := ParseIntrinsic(name).Op; got != op {
			t.Errorf("ParseIntrinsic(%q).Op = %v, want %v", name, got, op)
		}
		if op.Implemented() && op.Arity() < 1 {
			t.Errorf("%v is implemented but has arity %d", op, op.Arity())
		}
	}
	if OpUnknown.Implemented() {
		t.Error("OpUnknown must not be implemented")
	}
	if got := Op(1000).String(); got != "Op(1000)" {
		t.Errorf("Op(1000).String() = %q", got)
	}
}

func TestLowerRejects(t *testing.T) {
	tests := []struct {
		name    string
		wantMsg string
	}{
		{"simd_frobnicate", "unknown SIMD intrinsic `simd_frobnicate`"},
		{"simd_gather", "SIMD intrinsic `simd_gather` is not implemented"},
		{"simd_saturating_add", "SIMD intrinsic `simd_saturating_add` is not implemented"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			span := diag.Span{File: "lib.rs", Line: 10, Col: 4}
			err := Lower(h.cx, &Call{Name: tt.name, Ret: h.place(vec(4, i32)), Span: span})
			var fe *FatalError
			if !errors.As(err, &fe) {
				t.Fatalf("Lower = %v, want *FatalError", err)
			}
			want := []diag.Diagnostic{{Severity: diag.Fatal, Span: span, Message: tt.wantMsg}}
			if diff := cmp.Diff(want, h.sink.Diagnostics()); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
			if fe.Error() != "lib.rs:10:4: "+tt.wantMsg {
				t.Errorf("Error() = %q", fe.Error())
			}
		})
	}
}

func TestLowerArity(t *testing.T) {
	h := newHarness(t)
	x := h.place(vec(4, i32))
	err := Lower(h.cx, &Call{Name: "simd_add", Args: []Operand{op(x)}, Ret: h.place(vec(4, i32))})
	if !IsInternal(err) || !strings.Contains(err.Error(), "got 1 arguments, want 2") {
		t.Errorf("Lower = %v, want arity internal error", err)
	}
}

func TestValidator(t *testing.T) {
	h := newHarness(t)
	foo := h.place(OpaqueType{Name: "Foo", Bytes: 16})
	span := diag.Span{File: "v.rs", Line: 1, Col: 2}
	if err := Lower(h.cx, &Call{Name: "simd_add", Args: []Operand{op(foo), op(foo)}, Ret: h.place(vec(4, i32)), Span: span}); err != nil {
		t.Fatalf("Lower = %v, want nil after a recoverable error", err)
	}
	want := []diag.Diagnostic{{
		Severity: diag.Error,
		Span:     span,
		Message:  "invalid monomorphization of `simd_add` intrinsic: expected SIMD input type, found non-SIMD `Foo`",
	}}
	if diff := cmp.Diff(want, h.sink.Diagnostics()); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	if h.fn.CountOp(ir.OpStackLoad) != 0 {
		t.Error("lanes were read after validation failed")
	}

	// The function stays well formed and later calls still lower.
	x := h.place(vec(2, i32), i32s(1, 2)...)
	ret := h.place(vec(2, i32))
	h.lower("simd_add", ret, op(x), op(x))
	var trap *ir.TrapError
	if err := h.run(); !errors.As(err, &trap) || trap.Code != ir.TrapUnreachable {
		t.Errorf("run = %v, want unreachable trap", err)
	}
}

func TestValidatorCoversEveryFamily(t *testing.T) {
	names := []string{
		"simd_cast", "simd_neg", "simd_round", "simd_eq", "simd_shl", "simd_fmin", "simd_fma",
		"simd_reduce_add_ordered", "simd_reduce_all", "simd_reduce_xor", "simd_reduce_max",
		"simd_shuffle", "simd_insert", "simd_extract", "simd_select",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			foo := h.place(OpaqueType{Name: "Foo", Bytes: 16})
			args := make([]Operand, ParseIntrinsic(name).Op.Arity())
			for i := range args {
				args[i] = op(foo)
			}
			if err := Lower(h.cx, &Call{Name: name, Args: args, Ret: h.place(vec(4, i32))}); err != nil {
				t.Fatalf("Lower = %v, want nil", err)
			}
			if h.sink.Count(diag.Error) != 1 {
				t.Errorf("diagnostics = %v, want one error", h.sink.Diagnostics())
			}
		})
	}
}
