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
	"github.com/ajroetker/simdlower/ir"
)

// combineFunc folds one more lane into the accumulator.
type combineFunc func(kind LaneKind, acc, x ir.Value) (ir.Value, error)

// Reduction describes a fold of all lanes of a vector into one scalar.
type Reduction struct {
	Combine combineFunc

	// Seed is the initial accumulator. When nil the fold starts from lane 0.
	Seed *Value

	// Ordered requires the fold to run left to right starting with the
	// seed. Unordered folds are evaluated the same way.
	Ordered bool
}

// reduce folds the lanes of v into ret, which must have the lane kind of v.
func (cx *FunctionCx) reduce(call *Call, v Value, ret Place, r Reduction) error {
	vt := v.Type().(VectorType)
	if ret.Type() != Type(vt.Elem) {
		return internalf(call.Name, vt.Elem, "result type %s does not match lanes", ret.Type())
	}
	var acc ir.Value
	start := 0
	if r.Seed != nil {
		if r.Seed.Type() != Type(vt.Elem) {
			return internalf(call.Name, vt.Elem, "accumulator type %s does not match lanes", r.Seed.Type())
		}
		acc = r.Seed.Scalar(cx.B)
	} else {
		acc = v.Lane(cx.B, 0)
		start = 1
	}
	for i := start; i < vt.Lanes; i++ {
		var err error
		acc, err = r.Combine(vt.Elem, acc, v.Lane(cx.B, i))
		if err != nil {
			return err
		}
	}
	ret.WriteScalar(cx.B, acc)
	return nil
}

// reduceBool folds mask lanes as booleans (non-zero is true) with band or
// bor and writes the 0/1 result widened to the width of ret.
func (cx *FunctionCx) reduceBool(call *Call, v Value, ret Place, fold ir.Opcode) error {
	vt := v.Type().(VectorType)
	out, ok := ret.Type().(LaneKind)
	if !ok || !(out.IsInt() || out.Class == Bool) {
		return internalf(call.Name, vt.Elem, "boolean result type %s is not an integer", ret.Type())
	}
	var acc ir.Value
	for i := range vt.Lanes {
		bit := cx.B.IcmpImm(ir.IntNotEqual, cx.maskLane(vt.Elem, v.Lane(cx.B, i)), 0)
		if i == 0 {
			acc = bit
			continue
		}
		acc = cx.B.Binary(fold, acc, bit)
	}
	if t := out.IRType(); t != ir.I8 {
		acc = cx.B.Convert(ir.OpUextend, t, acc)
	}
	ret.WriteScalar(cx.B, acc)
	return nil
}

// maskLane returns x as an integer so it can be tested against zero.
func (cx *FunctionCx) maskLane(kind LaneKind, x ir.Value) ir.Value {
	if !kind.IsFloat() {
		return x
	}
	t, _ := ir.IntType(kind.Width)
	return cx.B.Convert(ir.OpBitcast, t, x)
}

func (cx *FunctionCx) addCombine(kind LaneKind, acc, x ir.Value) (ir.Value, error) {
	if kind.IsFloat() {
		return cx.B.Binary(ir.OpFadd, acc, x), nil
	}
	return cx.B.Binary(ir.OpIadd, acc, x), nil
}

func (cx *FunctionCx) mulCombine(kind LaneKind, acc, x ir.Value) (ir.Value, error) {
	if kind.IsFloat() {
		return cx.B.Binary(ir.OpFmul, acc, x), nil
	}
	return cx.B.Binary(ir.OpImul, acc, x), nil
}

// bitwiseCombine returns a combinator applying an integer bitwise opcode.
func (cx *FunctionCx) bitwiseCombine(name string, op ir.Opcode) combineFunc {
	return func(kind LaneKind, acc, x ir.Value) (ir.Value, error) {
		if !kind.IsInt() {
			return 0, internalf(name, kind, "%s needs integer lanes", op)
		}
		return cx.B.Binary(op, acc, x), nil
	}
}

// minMaxCombine keeps the accumulator when it compares less (or greater)
// than the lane and takes the lane otherwise, so a NaN lane replaces the
// accumulator and a NaN accumulator is replaced by the next lane.
func (cx *FunctionCx) minMaxCombine(name string, greater bool) combineFunc {
	return func(kind LaneKind, acc, x ir.Value) (ir.Value, error) {
		var cond ir.Value
		switch kind.Class {
		case SignedInt:
			cc := ir.IntSignedLessThan
			if greater {
				cc = ir.IntSignedGreaterThan
			}
			cond = cx.B.Icmp(cc, acc, x)
		case UnsignedInt:
			cc := ir.IntUnsignedLessThan
			if greater {
				cc = ir.IntUnsignedGreaterThan
			}
			cond = cx.B.Icmp(cc, acc, x)
		case Float:
			cc := ir.FloatLessThan
			if greater {
				cc = ir.FloatGreaterThan
			}
			cond = cx.B.Fcmp(cc, acc, x)
		default:
			return 0, internalf(name, kind, "no ordering for lanes")
		}
		return cx.B.Select(cond, acc, x), nil
	}
}
