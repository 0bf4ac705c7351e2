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
	"fmt"

	"github.com/ajroetker/simdlower/ir"
)

// Value is an immutable operand. Vectors and arrays always live in a stack
// slot (by-ref); scalars may also be a single SSA value (by-val).
//
// A Value borrows storage of the function being compiled and must not
// outlive it.
type Value struct {
	ty    Type
	byRef bool
	slot  ir.StackSlot
	off   int
	val   ir.Value
}

// ByRef returns a value of type ty stored at slot+off.
func ByRef(ty Type, slot ir.StackSlot, off int) Value {
	return Value{ty: ty, byRef: true, slot: slot, off: off}
}

// ByVal returns a scalar value held in v.
func ByVal(kind LaneKind, v ir.Value) Value {
	return Value{ty: kind, val: v}
}

// Type returns the source type of the value.
func (v Value) Type() Type { return v.ty }

// IsByRef reports whether the value lives in memory.
func (v Value) IsByRef() bool { return v.byRef }

// Lane loads lane i of a vector or array value. The index is a compile-time
// constant already checked by the caller.
func (v Value) Lane(b *ir.Builder, i int) ir.Value {
	elem, n := elemOf(v.ty)
	if i < 0 || i >= n || !v.byRef {
		panic(fmt.Sprintf("lower: lane %d of %s value", i, v.ty))
	}
	return b.StackLoad(elem.IRType(), v.slot, v.off+i*elem.Size())
}

// Scalar returns the SSA value of a scalar, loading it if needed.
func (v Value) Scalar(b *ir.Builder) ir.Value {
	if !v.byRef {
		return v.val
	}
	kind, ok := v.ty.(LaneKind)
	if !ok {
		panic(fmt.Sprintf("lower: scalar load of %s value", v.ty))
	}
	return b.StackLoad(kind.IRType(), v.slot, v.off)
}

// Place is a mutable destination: a typed region of a stack slot.
type Place struct {
	ty   Type
	slot ir.StackSlot
	off  int
}

// NewPlace allocates a fresh stack slot for a destination of type ty.
func NewPlace(b *ir.Builder, ty Type, name string) Place {
	return Place{ty: ty, slot: b.CreateStackSlot(max(ty.Size(), 1), name)}
}

// PlaceAt returns a destination of type ty at slot+off.
func PlaceAt(ty Type, slot ir.StackSlot, off int) Place {
	return Place{ty: ty, slot: slot, off: off}
}

// Type returns the destination type.
func (p Place) Type() Type { return p.ty }

// Slot returns the backing stack slot.
func (p Place) Slot() ir.StackSlot { return p.slot }

// Offset returns the byte offset of the destination within its slot.
func (p Place) Offset() int { return p.off }

// Lane returns the scalar place of lane i.
func (p Place) Lane(i int) Place {
	elem, n := elemOf(p.ty)
	if i < 0 || i >= n {
		panic(fmt.Sprintf("lower: lane %d of %s place", i, p.ty))
	}
	return Place{ty: elem, slot: p.slot, off: p.off + i*elem.Size()}
}

// WriteScalar stores an SSA value into the place.
func (p Place) WriteScalar(b *ir.Builder, x ir.Value) {
	b.StackStore(x, p.slot, p.off)
}

// Write copies v into the place. By-ref values are copied wholesale.
func (p Place) Write(b *ir.Builder, v Value) {
	if v.byRef {
		b.StackCopy(p.slot, p.off, v.slot, v.off, v.ty.Size())
		return
	}
	b.StackStore(v.val, p.slot, p.off)
}

// Value returns a read view of the place.
func (p Place) Value() Value {
	return ByRef(p.ty, p.slot, p.off)
}

// elemOf returns the lane kind and lane count of vector and array types.
func elemOf(t Type) (LaneKind, int) {
	switch t := t.(type) {
	case VectorType:
		return t.Elem, t.Lanes
	case ArrayType:
		return t.Elem, t.Len
	}
	return LaneKind{}, 0
}
