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

	"github.com/ajroetker/simdlower/ir"
)

// NumericLib lowers the floating-point routines the instruction set lacks.
// t is ir.F32 or ir.F64 and selects single or double precision.
type NumericLib interface {
	// Fmod returns the C fmod/fmodf remainder of x/y: the result has the
	// sign of x and magnitude less than |y|.
	Fmod(b *ir.Builder, t ir.Type, x, y ir.Value) ir.Value

	// Round rounds half away from zero, like C round/roundf.
	Round(b *ir.Builder, t ir.Type, x ir.Value) ir.Value
}

// Libm calls the C library.
type Libm struct{}

// Fmod implements NumericLib.
func (Libm) Fmod(b *ir.Builder, t ir.Type, x, y ir.Value) ir.Value {
	name := "fmod"
	if t == ir.F32 {
		name = "fmodf"
	}
	fn := b.Import(ir.Signature{Name: name, Params: []ir.Type{t, t}, Returns: []ir.Type{t}})
	return b.Call(fn, x, y)[0]
}

// Round implements NumericLib.
func (Libm) Round(b *ir.Builder, t ir.Type, x ir.Value) ir.Value {
	name := "round"
	if t == ir.F32 {
		name = "roundf"
	}
	fn := b.Import(ir.Signature{Name: name, Params: []ir.Type{t}, Returns: []ir.Type{t}})
	return b.Call(fn, x)[0]
}

// Runtime helper names used by SoftLibm.
const (
	SoftFmod  = "__simdlower_fmod"
	SoftFmodf = "__simdlower_fmodf"
)

// SoftLibm serves targets without a C library. Round is expanded inline;
// an exact remainder needs a loop, so Fmod calls a runtime helper that ships
// with the generated code.
type SoftLibm struct{}

// Fmod implements NumericLib.
func (SoftLibm) Fmod(b *ir.Builder, t ir.Type, x, y ir.Value) ir.Value {
	name := SoftFmod
	if t == ir.F32 {
		name = SoftFmodf
	}
	fn := b.Import(ir.Signature{Name: name, Params: []ir.Type{t, t}, Returns: []ir.Type{t}})
	return b.Call(fn, x, y)[0]
}

// Round implements NumericLib as
//
//	t = trunc(x)
//	round(x) = |x - t| >= 0.5 ? t + copysign(1, x) : t
//
// x - t is exact, and NaN or infinite inputs fail the comparison and
// return trunc(x) unchanged.
func (SoftLibm) Round(b *ir.Builder, t ir.Type, x ir.Value) ir.Value {
	tr := b.Unary(ir.OpTrunc, x)
	frac := b.Unary(ir.OpFabs, b.Binary(ir.OpFsub, x, tr))
	half := b.Fconst(t, 0.5)
	away := b.Fcmp(ir.FloatGreaterThanOrEqual, frac, half)
	step := b.Binary(ir.OpFcopysign, b.Fconst(t, 1), x)
	return b.Select(away, b.Binary(ir.OpFadd, tr, step), tr)
}

// Runtime returns the routines needed to execute lowered code with ir.Exec:
// the C library names and the SoftLibm helpers.
func Runtime() ir.Runtime {
	rt := ir.StdRuntime()
	rt[SoftFmod] = rt["fmod"]
	rt[SoftFmodf] = func(a []uint64) []uint64 {
		x := math.Float32frombits(uint32(a[0]))
		y := math.Float32frombits(uint32(a[1]))
		return []uint64{uint64(math.Float32bits(float32(math.Mod(float64(x), float64(y)))))}
	}
	return rt
}
