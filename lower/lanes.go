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

// Lane mapping: every output lane depends only on the input lanes with the
// same index.

type (
	unaryLaneFunc   func(in, out LaneKind, x ir.Value) (ir.Value, error)
	binaryLaneFunc  func(in, out LaneKind, x, y ir.Value) (ir.Value, error)
	ternaryLaneFunc func(in, out LaneKind, x, y, z ir.Value) (ir.Value, error)
)

// forEachLane applies f to each lane of v and writes the results to ret,
// which must be a vector with the same lane count.
func (cx *FunctionCx) forEachLane(call *Call, v Value, ret Place, f unaryLaneFunc) error {
	vt := v.Type().(VectorType)
	rt, err := vectorDest(call.Name, ret, vt.Lanes)
	if err != nil {
		return err
	}
	for i := range vt.Lanes {
		r, err := f(vt.Elem, rt.Elem, v.Lane(cx.B, i))
		if err != nil {
			return err
		}
		ret.Lane(i).WriteScalar(cx.B, r)
	}
	return nil
}

// pairForEachLane applies f to lanes of x and y, which must have the same type.
func (cx *FunctionCx) pairForEachLane(call *Call, x, y Value, ret Place, f binaryLaneFunc) error {
	if err := sameShape(call.Name, x.Type(), y.Type()); err != nil {
		return err
	}
	vt := x.Type().(VectorType)
	rt, err := vectorDest(call.Name, ret, vt.Lanes)
	if err != nil {
		return err
	}
	for i := range vt.Lanes {
		r, err := f(vt.Elem, rt.Elem, x.Lane(cx.B, i), y.Lane(cx.B, i))
		if err != nil {
			return err
		}
		ret.Lane(i).WriteScalar(cx.B, r)
	}
	return nil
}

// tripleForEachLane applies f to lanes of three vectors of the same type.
func (cx *FunctionCx) tripleForEachLane(call *Call, x, y, z Value, ret Place, f ternaryLaneFunc) error {
	if err := sameShape(call.Name, x.Type(), y.Type()); err != nil {
		return err
	}
	if err := sameShape(call.Name, x.Type(), z.Type()); err != nil {
		return err
	}
	vt := x.Type().(VectorType)
	rt, err := vectorDest(call.Name, ret, vt.Lanes)
	if err != nil {
		return err
	}
	for i := range vt.Lanes {
		r, err := f(vt.Elem, rt.Elem, x.Lane(cx.B, i), y.Lane(cx.B, i), z.Lane(cx.B, i))
		if err != nil {
			return err
		}
		ret.Lane(i).WriteScalar(cx.B, r)
	}
	return nil
}

// castLane converts one lane like a Rust `as` cast: integers extend by the
// source signedness or truncate, float-to-int saturates with NaN mapping to 0.
func (cx *FunctionCx) castLane(name string, from, to LaneKind, x ir.Value) (ir.Value, error) {
	b := cx.B
	dst := to.IRType()
	switch {
	case from.IsInt() && to.IsInt():
		switch {
		case to.Width > from.Width && from.Class == SignedInt:
			return b.Convert(ir.OpSextend, dst, x), nil
		case to.Width > from.Width:
			return b.Convert(ir.OpUextend, dst, x), nil
		case to.Width < from.Width:
			return b.Convert(ir.OpIreduce, dst, x), nil
		}
		return x, nil
	case from.IsInt() && to.IsFloat():
		if from.Class == SignedInt {
			return b.Convert(ir.OpFcvtFromSint, dst, x), nil
		}
		return b.Convert(ir.OpFcvtFromUint, dst, x), nil
	case from.IsFloat() && to.IsInt():
		if to.Class == SignedInt {
			return b.Convert(ir.OpFcvtToSintSat, dst, x), nil
		}
		return b.Convert(ir.OpFcvtToUintSat, dst, x), nil
	case from.IsFloat() && to.IsFloat():
		switch {
		case to.Width > from.Width:
			return b.Convert(ir.OpFpromote, dst, x), nil
		case to.Width < from.Width:
			return b.Convert(ir.OpFdemote, dst, x), nil
		}
		return x, nil
	}
	return 0, internalf(name, from, "cannot cast to %s", to)
}

// unaryLane lowers neg and the float-only unary operations.
func (cx *FunctionCx) unaryLane(name string, op Op, kind LaneKind, x ir.Value) (ir.Value, error) {
	b := cx.B
	if op == OpNeg {
		switch kind.Class {
		case SignedInt:
			return b.Unary(ir.OpIneg, x), nil
		case Float:
			return b.Unary(ir.OpFneg, x), nil
		}
		return 0, internalf(name, kind, "neg is only defined for signed integers and floats")
	}
	if !kind.IsFloat() {
		return 0, internalf(name, kind, "%s is only defined for floats", op)
	}
	switch op {
	case OpFabs:
		return b.Unary(ir.OpFabs, x), nil
	case OpFsqrt:
		return b.Unary(ir.OpSqrt, x), nil
	case OpCeil:
		return b.Unary(ir.OpCeil, x), nil
	case OpFloor:
		return b.Unary(ir.OpFloor, x), nil
	case OpTrunc:
		return b.Unary(ir.OpTrunc, x), nil
	case OpRound:
		return cx.Lib.Round(b, kind.IRType(), x), nil
	}
	return 0, internalf(name, kind, "%s is not a unary operation", op)
}

var (
	unsignedBinary = map[Op]ir.Opcode{
		OpAdd: ir.OpIadd, OpSub: ir.OpIsub, OpMul: ir.OpImul,
		OpDiv: ir.OpUdiv, OpRem: ir.OpUrem,
		OpShl: ir.OpIshl, OpShr: ir.OpUshr,
		OpAnd: ir.OpBand, OpOr: ir.OpBor, OpXor: ir.OpBxor,
	}
	signedBinary = map[Op]ir.Opcode{
		OpAdd: ir.OpIadd, OpSub: ir.OpIsub, OpMul: ir.OpImul,
		OpDiv: ir.OpSdiv, OpRem: ir.OpSrem,
		OpShl: ir.OpIshl, OpShr: ir.OpSshr,
		OpAnd: ir.OpBand, OpOr: ir.OpBor, OpXor: ir.OpBxor,
	}
	floatBinary = map[Op]ir.Opcode{
		OpAdd: ir.OpFadd, OpSub: ir.OpFsub, OpMul: ir.OpFmul, OpDiv: ir.OpFdiv,
	}
)

// binaryLane lowers arithmetic, bitwise and shift operations. Float rem is
// C fmod, not the IEEE remainder.
func (cx *FunctionCx) binaryLane(name string, op Op, kind LaneKind, x, y ir.Value) (ir.Value, error) {
	var table map[Op]ir.Opcode
	switch kind.Class {
	case UnsignedInt:
		table = unsignedBinary
	case SignedInt:
		table = signedBinary
	case Float:
		if op == OpRem {
			return cx.Lib.Fmod(cx.B, kind.IRType(), x, y), nil
		}
		table = floatBinary
	}
	opc, ok := table[op]
	if !ok {
		return 0, internalf(name, kind, "%s has no lane operator", op)
	}
	return cx.B.Binary(opc, x, y), nil
}

var (
	signedCC = map[Op]ir.IntCC{
		OpEq: ir.IntEqual, OpNe: ir.IntNotEqual,
		OpLt: ir.IntSignedLessThan, OpLe: ir.IntSignedLessThanOrEqual,
		OpGt: ir.IntSignedGreaterThan, OpGe: ir.IntSignedGreaterThanOrEqual,
	}
	unsignedCC = map[Op]ir.IntCC{
		OpEq: ir.IntEqual, OpNe: ir.IntNotEqual,
		OpLt: ir.IntUnsignedLessThan, OpLe: ir.IntUnsignedLessThanOrEqual,
		OpGt: ir.IntUnsignedGreaterThan, OpGe: ir.IntUnsignedGreaterThanOrEqual,
	}
	floatCC = map[Op]ir.FloatCC{
		OpEq: ir.FloatEqual, OpNe: ir.FloatNotEqual,
		OpLt: ir.FloatLessThan, OpLe: ir.FloatLessThanOrEqual,
		OpGt: ir.FloatGreaterThan, OpGe: ir.FloatGreaterThanOrEqual,
	}
)

// compareLane produces an all-ones or all-zeros lane of the destination
// width.
func (cx *FunctionCx) compareLane(name string, op Op, kind, out LaneKind, x, y ir.Value) (ir.Value, error) {
	if !out.IsInt() {
		return 0, internalf(name, out, "comparison mask lanes must be integers")
	}
	b := cx.B
	var cond ir.Value
	switch kind.Class {
	case SignedInt:
		cond = b.Icmp(signedCC[op], x, y)
	case UnsignedInt:
		cond = b.Icmp(unsignedCC[op], x, y)
	case Float:
		cond = b.Fcmp(floatCC[op], x, y)
	default:
		return 0, internalf(name, kind, "cannot compare lanes")
	}
	return b.Unary(ir.OpIneg, b.Bint(out.IRType(), cond)), nil
}

// minMaxLane lowers fmin/fmax as a compare and select. A comparison with a
// NaN operand is false, so the second operand is returned in that case.
func (cx *FunctionCx) minMaxLane(name string, op Op, kind LaneKind, x, y ir.Value) (ir.Value, error) {
	if !kind.IsFloat() {
		return 0, internalf(name, kind, "%s is only defined for floats", op)
	}
	cc := ir.FloatLessThan
	if op == OpFmax {
		cc = ir.FloatGreaterThan
	}
	return cx.B.Select(cx.B.Fcmp(cc, x, y), x, y), nil
}

// fmaLane computes x*y+z with two roundings.
func (cx *FunctionCx) fmaLane(name string, kind LaneKind, x, y, z ir.Value) (ir.Value, error) {
	if !kind.IsFloat() {
		return 0, internalf(name, kind, "fma is only defined for floats")
	}
	return cx.B.Binary(ir.OpFadd, cx.B.Binary(ir.OpFmul, x, y), z), nil
}
