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
	"encoding/binary"
	"math"
	"testing"

	"github.com/ajroetker/simdlower/diag"
	"github.com/ajroetker/simdlower/ir"
)

// harness builds a function around intrinsic calls and executes it.
type harness struct {
	t     *testing.T
	fn    *ir.Function
	b     *ir.Builder
	sink  *diag.Collector
	cx    *FunctionCx
	order binary.ByteOrder
	mem   *ir.Memory
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	fn := ir.NewFunction(t.Name())
	b := ir.NewBuilder(fn)
	sink := &diag.Collector{}
	cx := NewFunctionCx(b, sink, opts...)
	return &harness{t: t, fn: fn, b: b, sink: sink, cx: cx, order: cx.Order}
}

// place allocates a location of type ty and stores the given lane bit
// patterns into it.
func (h *harness) place(ty Type, lanes ...uint64) Place {
	p := NewPlace(h.b, ty, "")
	if k, ok := ty.(LaneKind); ok {
		for _, x := range lanes {
			p.WriteScalar(h.b, h.b.Const(k.IRType(), x))
		}
		return p
	}
	kind, _ := elemOf(ty)
	for i, x := range lanes {
		p.Lane(i).WriteScalar(h.b, h.b.Const(kind.IRType(), x))
	}
	return p
}

// constBytes encodes u32 words the way a front end attaches constants.
func (h *harness) constBytes(words ...uint32) []byte {
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		h.order.PutUint32(raw[4*i:], w)
	}
	return raw
}

// lower lowers one call and fails the test on error.
func (h *harness) lower(name string, ret Place, args ...Operand) {
	h.t.Helper()
	if err := Lower(h.cx, &Call{Name: name, Args: args, Ret: ret}); err != nil {
		h.t.Fatalf("Lower(%s): %v", name, err)
	}
}

// run finishes, verifies and executes the function. It returns the trap
// error, if any.
func (h *harness) run() error {
	h.t.Helper()
	h.b.Finish()
	if err := ir.Verify(h.fn); err != nil {
		h.t.Fatalf("Verify: %v\n%s", err, ir.Format(h.fn))
	}
	h.mem = ir.NewMemory(h.fn, h.order)
	return ir.Exec(h.fn, h.mem, Runtime())
}

// mustRun is run for functions that must not trap.
func (h *harness) mustRun() {
	h.t.Helper()
	if err := h.run(); err != nil {
		h.t.Fatalf("Exec: %v\n%s", err, ir.Format(h.fn))
	}
}

// lanes reads back every lane of p after run.
func (h *harness) lanes(p Place) []uint64 {
	if k, ok := p.Type().(LaneKind); ok {
		return []uint64{h.mem.Load(k.IRType(), p.Slot(), p.Offset())}
	}
	kind, n := elemOf(p.Type())
	out := make([]uint64, n)
	for i := range out {
		out[i] = h.mem.Load(kind.IRType(), p.Slot(), p.Offset()+i*kind.Size())
	}
	return out
}

func op(p Place) Operand { return Operand{Value: p.Value()} }

func constOp(p Place, raw []byte) Operand { return Operand{Value: p.Value(), Const: raw} }

// Lane bit pattern helpers.

func ints[T int8 | int16 | int32 | int64](bits int, xs ...T) []uint64 {
	out := make([]uint64, len(xs))
	for i, x := range xs {
		out[i] = uint64(int64(x)) & (math.MaxUint64 >> (64 - bits))
	}
	return out
}

func i32s(xs ...int32) []uint64 { return ints(32, xs...) }

func i8s(xs ...int8) []uint64 { return ints(8, xs...) }

func u32s(xs ...uint32) []uint64 {
	out := make([]uint64, len(xs))
	for i, x := range xs {
		out[i] = uint64(x)
	}
	return out
}

func f32s(xs ...float32) []uint64 {
	out := make([]uint64, len(xs))
	for i, x := range xs {
		out[i] = uint64(math.Float32bits(x))
	}
	return out
}

func f64s(xs ...float64) []uint64 {
	out := make([]uint64, len(xs))
	for i, x := range xs {
		out[i] = math.Float64bits(x)
	}
	return out
}

func vec(n int, k LaneKind) VectorType { return VectorType{Lanes: n, Elem: k} }
