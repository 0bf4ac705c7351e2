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
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/simdlower/ir"
)

var (
	i8  = Signed(8)
	i32 = Signed(32)
	u8  = Unsigned(8)
	u32 = Unsigned(32)
	f32 = FloatKind(32)
	f64 = FloatKind(64)
)

func TestBinaryLanes(t *testing.T) {
	tests := []struct {
		name      string
		intrinsic string
		in, out   VectorType
		x, y      []uint64
		want      []uint64
	}{
		{"add i32", "simd_add", vec(4, i32), vec(4, i32), i32s(1, 2, 3, 4), i32s(10, 20, 30, 40), i32s(11, 22, 33, 44)},
		{"sub u32 wraps", "simd_sub", vec(2, u32), vec(2, u32), u32s(0, 5), u32s(1, 2), u32s(math.MaxUint32, 3)},
		{"mul f32", "simd_mul", vec(2, f32), vec(2, f32), f32s(1.5, 2), f32s(2, 4), f32s(3, 8)},
		{"div i32 signed", "simd_div", vec(2, i32), vec(2, i32), i32s(-7, 7), i32s(2, 2), i32s(-3, 3)},
		{"div u32 unsigned", "simd_div", vec(2, u32), vec(2, u32), u32s(0xFFFFFFF9, 7), u32s(2, 2), u32s(0x7FFFFFFC, 3)},
		{"rem i32", "simd_rem", vec(2, i32), vec(2, i32), i32s(-7, 7), i32s(2, 3), i32s(-1, 1)},
		{"rem f64 is fmod", "simd_rem", vec(2, f64), vec(2, f64), f64s(5.5, -5.5), f64s(2, 2), f64s(1.5, -1.5)},
		{"rem f32 is fmodf", "simd_rem", vec(2, f32), vec(2, f32), f32s(7, -7), f32s(4, 4), f32s(3, -3)},
		{"shl modulo width", "simd_shl", vec(2, i32), vec(2, i32), i32s(1, 1), i32s(3, 33), i32s(8, 2)},
		{"shr i32 arithmetic", "simd_shr", vec(1, i32), vec(1, i32), i32s(-8), i32s(1), i32s(-4)},
		{"shr u32 logical", "simd_shr", vec(1, u32), vec(1, u32), u32s(0xFFFFFFF8), u32s(1), u32s(0x7FFFFFFC)},
		{"and", "simd_and", vec(2, u32), vec(2, u32), u32s(0b1100, 0xFF), u32s(0b1010, 0x0F), u32s(0b1000, 0x0F)},
		{"or", "simd_or", vec(2, u32), vec(2, u32), u32s(0b1100, 0), u32s(0b1010, 0), u32s(0b1110, 0)},
		{"xor", "simd_xor", vec(2, u32), vec(2, u32), u32s(0b1100, 7), u32s(0b1010, 7), u32s(0b0110, 0)},
		{"eq i32 mask", "simd_eq", vec(4, i32), vec(4, i32), i32s(1, 2, 3, 4), i32s(1, 0, 3, 0), i32s(-1, 0, -1, 0)},
		{"ne i32 mask", "simd_ne", vec(2, i32), vec(2, i32), i32s(1, 2), i32s(1, 0), i32s(0, -1)},
		{"lt signed", "simd_lt", vec(2, i32), vec(2, i32), i32s(-1, 5), i32s(1, 5), i32s(-1, 0)},
		{"lt unsigned", "simd_lt", vec(2, u32), vec(2, u32), u32s(math.MaxUint32, 0), u32s(1, 1), u32s(0, math.MaxUint32)},
		{"le", "simd_le", vec(2, i32), vec(2, i32), i32s(5, 6), i32s(5, 5), i32s(-1, 0)},
		{"ge", "simd_ge", vec(2, i32), vec(2, i32), i32s(5, 4), i32s(5, 5), i32s(-1, 0)},
		{"gt to narrower mask", "simd_gt", vec(2, i32), vec(2, i8), i32s(7, 1), i32s(1, 7), i8s(-1, 0)},
		{"lt f32 with NaN", "simd_lt", vec(2, f32), vec(2, i32), f32s(1, float32(math.NaN())), f32s(2, 2), i32s(-1, 0)},
		{"ne f64 with NaN", "simd_ne", vec(1, f64), vec(1, i32), f64s(math.NaN()), f64s(math.NaN()), i32s(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			x, y := h.place(tt.in, tt.x...), h.place(tt.in, tt.y...)
			ret := h.place(tt.out)
			h.lower(tt.intrinsic, ret, op(x), op(y))
			h.mustRun()
			if diff := cmp.Diff(tt.want, h.lanes(ret)); diff != "" {
				t.Errorf("%s lanes mismatch (-want +got):\n%s", tt.intrinsic, diff)
			}
		})
	}
}

func TestUnaryLanes(t *testing.T) {
	tests := []struct {
		name      string
		intrinsic string
		ty        VectorType
		x, want   []uint64
		opts      []Option
	}{
		{name: "neg i32", intrinsic: "simd_neg", ty: vec(2, i32), x: i32s(1, -2), want: i32s(-1, 2)},
		{name: "neg f64", intrinsic: "simd_neg", ty: vec(2, f64), x: f64s(1.5, 0), want: f64s(-1.5, math.Copysign(0, -1))},
		{name: "fabs", intrinsic: "simd_fabs", ty: vec(2, f32), x: f32s(-1.5, 2), want: f32s(1.5, 2)},
		{name: "fsqrt", intrinsic: "simd_fsqrt", ty: vec(2, f64), x: f64s(4, 2.25), want: f64s(2, 1.5)},
		{name: "ceil", intrinsic: "simd_ceil", ty: vec(2, f64), x: f64s(-1.5, 1.5), want: f64s(-1, 2)},
		{name: "floor", intrinsic: "simd_floor", ty: vec(2, f64), x: f64s(-1.5, 1.5), want: f64s(-2, 1)},
		{name: "trunc", intrinsic: "simd_trunc", ty: vec(2, f32), x: f32s(-1.5, 1.5), want: f32s(-1, 1)},
		{
			name: "round libm", intrinsic: "simd_round", ty: vec(4, f64),
			x: f64s(0.5, -0.5, 1.4, 2.5), want: f64s(1, -1, 1, 3),
		},
		{
			name: "round soft", intrinsic: "simd_round", ty: vec(4, f64), opts: []Option{WithNumericLib(SoftLibm{})},
			x: f64s(0.5, -0.5, 1.4, 2.5), want: f64s(1, -1, 1, 3),
		},
		{
			name: "round soft f32", intrinsic: "simd_round", ty: vec(4, f32), opts: []Option{WithNumericLib(SoftLibm{})},
			x: f32s(-2.5, 0.49999997, float32(math.Inf(1)), -0.2), want: f32s(-3, 0, float32(math.Inf(1)), float32(math.Copysign(0, -1))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.opts...)
			x := h.place(tt.ty, tt.x...)
			ret := h.place(tt.ty)
			h.lower(tt.intrinsic, ret, op(x))
			h.mustRun()
			if diff := cmp.Diff(tt.want, h.lanes(ret)); diff != "" {
				t.Errorf("%s lanes mismatch (-want +got):\n%s", tt.intrinsic, diff)
			}
		})
	}
}

func TestRoundLibraries(t *testing.T) {
	libm := newHarness(t)
	x := libm.place(vec(1, f32), f32s(1.5)...)
	libm.lower("simd_round", libm.place(vec(1, f32)), op(x))
	if got := libm.fn.CountOp(ir.OpCall); got != 1 {
		t.Errorf("Libm round emitted %d calls, want 1", got)
	}
	if len(libm.fn.Imports) != 1 || libm.fn.Imports[0].Name != "roundf" {
		t.Errorf("Libm imports = %v, want [roundf]", libm.fn.Imports)
	}

	soft := newHarness(t, WithNumericLib(SoftLibm{}))
	y := soft.place(vec(1, f64), f64s(1.5)...)
	soft.lower("simd_round", soft.place(vec(1, f64)), op(y))
	if got := soft.fn.CountOp(ir.OpCall); got != 0 {
		t.Errorf("SoftLibm round emitted %d calls, want 0", got)
	}

	rem := newHarness(t, WithNumericLib(SoftLibm{}))
	a := rem.place(vec(1, f32), f32s(5)...)
	rem.lower("simd_rem", rem.place(vec(1, f32)), op(a), op(a))
	if len(rem.fn.Imports) != 1 || rem.fn.Imports[0].Name != SoftFmodf {
		t.Errorf("SoftLibm rem imports = %v, want [%s]", rem.fn.Imports, SoftFmodf)
	}
}

func TestCastLanes(t *testing.T) {
	tests := []struct {
		name     string
		from, to VectorType
		x, want  []uint64
	}{
		{"i8 to i32 sign-extends", vec(2, i8), vec(2, i32), i8s(-1, 5), i32s(-1, 5)},
		{"u8 to u32 zero-extends", vec(1, u8), vec(1, u32), []uint64{255}, u32s(255)},
		{"i32 to i8 truncates", vec(1, i32), vec(1, i8), i32s(300), i8s(44)},
		{"i32 to u32 keeps bits", vec(1, i32), vec(1, u32), i32s(-1), u32s(math.MaxUint32)},
		{"i32 to f32", vec(1, i32), vec(1, f32), i32s(-3), f32s(-3)},
		{"u32 to f64", vec(1, u32), vec(1, f64), u32s(math.MaxUint32), f64s(4294967295)},
		{
			"f64 to i32 saturates", vec(4, f64), vec(4, i32),
			f64s(1e10, -1e10, math.NaN(), -2.7), i32s(math.MaxInt32, math.MinInt32, 0, -2),
		},
		{"f64 to u8 saturates", vec(3, f64), vec(3, u8), f64s(-1, 300, 3.9), []uint64{0, 255, 3}},
		{"f32 to f64", vec(1, f32), vec(1, f64), f32s(1.5), f64s(1.5)},
		{"f64 to f32", vec(1, f64), vec(1, f32), f64s(0.25), f32s(0.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			x := h.place(tt.from, tt.x...)
			ret := h.place(tt.to)
			h.lower("simd_cast", ret, op(x))
			h.mustRun()
			if diff := cmp.Diff(tt.want, h.lanes(ret)); diff != "" {
				t.Errorf("cast %s -> %s mismatch (-want +got):\n%s", tt.from, tt.to, diff)
			}
		})
	}
}

func TestCastRoundTrip(t *testing.T) {
	h := newHarness(t)
	want := i32s(-100000, 0, 7, 1<<24)
	x := h.place(vec(4, i32), want...)
	mid := h.place(vec(4, f64))
	back := h.place(vec(4, i32))
	h.lower("simd_cast", mid, op(x))
	h.lower("simd_cast", back, op(mid))
	h.mustRun()
	if diff := cmp.Diff(want, h.lanes(back)); diff != "" {
		t.Errorf("i32 -> f64 -> i32 mismatch (-want +got):\n%s", diff)
	}
}

func TestMinMaxNaN(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		intrinsic string
		want      []uint64
	}{
		// A comparison with NaN is false, so the second operand wins.
		{"simd_fmin", f64s(1, 1, nan)},
		{"simd_fmax", f64s(2, 1, nan)},
	}
	for _, tt := range tests {
		t.Run(tt.intrinsic, func(t *testing.T) {
			h := newHarness(t)
			x := h.place(vec(3, f64), f64s(1, nan, 3)...)
			y := h.place(vec(3, f64), f64s(2, 1, nan)...)
			ret := h.place(vec(3, f64))
			h.lower(tt.intrinsic, ret, op(x), op(y))
			h.mustRun()
			if diff := cmp.Diff(tt.want, h.lanes(ret)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.intrinsic, diff)
			}
		})
	}
}

func TestFma(t *testing.T) {
	h := newHarness(t)
	a := h.place(vec(2, f64), f64s(2, 3)...)
	b := h.place(vec(2, f64), f64s(10, 10)...)
	c := h.place(vec(2, f64), f64s(1, 2)...)
	ret := h.place(vec(2, f64))
	h.lower("simd_fma", ret, op(a), op(b), op(c))
	h.mustRun()
	if diff := cmp.Diff(f64s(21, 32), h.lanes(ret)); diff != "" {
		t.Errorf("fma mismatch (-want +got):\n%s", diff)
	}
	if h.fn.CountOp(ir.OpFmul) != 2 || h.fn.CountOp(ir.OpFadd) != 2 {
		t.Errorf("fma should lower to fmul then fadd per lane:\n%s", ir.Format(h.fn))
	}
}

func TestLaneInternalErrors(t *testing.T) {
	tests := []struct {
		name      string
		intrinsic string
		args      []VectorType
		ret       VectorType
		wantMsg   string
	}{
		{"neg unsigned", "simd_neg", []VectorType{vec(2, u32)}, vec(2, u32), "neg"},
		{"fabs on ints", "simd_fabs", []VectorType{vec(2, i32)}, vec(2, i32), "only defined for floats"},
		{"bitwise on floats", "simd_and", []VectorType{vec(2, f32), vec(2, f32)}, vec(2, f32), "no lane operator"},
		{"shape mismatch", "simd_add", []VectorType{vec(4, i32), vec(2, i32)}, vec(4, i32), "differ"},
		{"destination lanes", "simd_add", []VectorType{vec(4, i32), vec(4, i32)}, vec(2, i32), "destination has 2 lanes"},
		{"float mask", "simd_eq", []VectorType{vec(2, f32), vec(2, f32)}, vec(2, f32), "mask lanes must be integers"},
		{"fma on ints", "simd_fma", []VectorType{vec(2, i32), vec(2, i32), vec(2, i32)}, vec(2, i32), "fma"},
		{"fmin on ints", "simd_fmin", []VectorType{vec(2, i32), vec(2, i32)}, vec(2, i32), "only defined for floats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			var args []Operand
			for _, ty := range tt.args {
				args = append(args, op(h.place(ty)))
			}
			err := Lower(h.cx, &Call{Name: tt.intrinsic, Args: args, Ret: h.place(tt.ret)})
			if !IsInternal(err) {
				t.Fatalf("Lower(%s) = %v, want an internal error", tt.intrinsic, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
			if n := len(h.sink.Diagnostics()); n != 0 {
				t.Errorf("internal errors must not reach the sink, got %d diagnostics", n)
			}
		})
	}
}
