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

// Package ir provides the scalar target instruction representation that SIMD
// intrinsics are lowered into.
//
// A Function is a list of blocks holding instructions in SSA form. Vectors do
// not exist at this level: they live in stack slots and are accessed one lane
// at a time with stack_load and stack_store.
package ir

import "fmt"

// Type is the type of an SSA value.
type Type uint8

const (
	// TypeInvalid marks instructions that produce no value.
	TypeInvalid Type = iota
	I8
	I16
	I32
	I64
	F32
	F64
)

// String returns the textual name of the type.
func (t Type) String() string {
	switch t {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case TypeInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Bits returns the width of the type in bits.
func (t Type) Bits() int {
	switch t {
	case I8:
		return 8
	case I16:
		return 16
	case I32, F32:
		return 32
	case I64, F64:
		return 64
	default:
		return 0
	}
}

// Bytes returns the width of the type in bytes.
func (t Type) Bytes() int {
	return t.Bits() / 8
}

// IsInt reports whether t is an integer type.
func (t Type) IsInt() bool {
	return t >= I8 && t <= I64
}

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool {
	return t == F32 || t == F64
}

// IntType returns the integer type with the given bit width.
func IntType(bits int) (Type, bool) {
	switch bits {
	case 8:
		return I8, true
	case 16:
		return I16, true
	case 32:
		return I32, true
	case 64:
		return I64, true
	}
	return TypeInvalid, false
}

// IntCC is an integer comparison condition.
type IntCC uint8

const (
	IntEqual IntCC = iota
	IntNotEqual
	IntSignedLessThan
	IntSignedLessThanOrEqual
	IntSignedGreaterThan
	IntSignedGreaterThanOrEqual
	IntUnsignedLessThan
	IntUnsignedLessThanOrEqual
	IntUnsignedGreaterThan
	IntUnsignedGreaterThanOrEqual
)

func (c IntCC) String() string {
	switch c {
	case IntEqual:
		return "eq"
	case IntNotEqual:
		return "ne"
	case IntSignedLessThan:
		return "slt"
	case IntSignedLessThanOrEqual:
		return "sle"
	case IntSignedGreaterThan:
		return "sgt"
	case IntSignedGreaterThanOrEqual:
		return "sge"
	case IntUnsignedLessThan:
		return "ult"
	case IntUnsignedLessThanOrEqual:
		return "ule"
	case IntUnsignedGreaterThan:
		return "ugt"
	case IntUnsignedGreaterThanOrEqual:
		return "uge"
	default:
		return fmt.Sprintf("IntCC(%d)", c)
	}
}

// FloatCC is a floating-point comparison condition. All conditions except
// FloatNotEqual are false when either operand is NaN.
type FloatCC uint8

const (
	FloatEqual FloatCC = iota
	FloatNotEqual
	FloatLessThan
	FloatLessThanOrEqual
	FloatGreaterThan
	FloatGreaterThanOrEqual
)

func (c FloatCC) String() string {
	switch c {
	case FloatEqual:
		return "eq"
	case FloatNotEqual:
		return "ne"
	case FloatLessThan:
		return "lt"
	case FloatLessThanOrEqual:
		return "le"
	case FloatGreaterThan:
		return "gt"
	case FloatGreaterThanOrEqual:
		return "ge"
	default:
		return fmt.Sprintf("FloatCC(%d)", c)
	}
}

// Value is an SSA value. The zero Value is invalid; valid values start at 1.
type Value uint32

// String returns the textual name of the value ("v3").
func (v Value) String() string {
	return fmt.Sprintf("v%d", uint32(v)-1)
}

// StackSlot identifies a stack slot of a Function.
type StackSlot uint32

func (s StackSlot) String() string {
	return fmt.Sprintf("ss%d", uint32(s))
}

// FuncRef identifies an imported function signature of a Function.
type FuncRef uint32

func (f FuncRef) String() string {
	return fmt.Sprintf("fn%d", uint32(f))
}

// Signature describes an external function with explicit parameter and
// return types.
type Signature struct {
	Name    string
	Params  []Type
	Returns []Type
}

// TrapCode classifies why a trap instruction was emitted.
type TrapCode uint8

const (
	// TrapUnreachable marks code the front end proved cannot execute, or code
	// that follows a reported compile error.
	TrapUnreachable TrapCode = iota

	// TrapUnimplemented stands in for a result that could not be computed at
	// compile time (e.g. a non-constant lane index).
	TrapUnimplemented

	// TrapIntDivByZero and TrapIntOverflow are raised by udiv/sdiv/urem/srem.
	TrapIntDivByZero
	TrapIntOverflow
)

func (c TrapCode) String() string {
	switch c {
	case TrapUnreachable:
		return "unreachable"
	case TrapUnimplemented:
		return "unimplemented"
	case TrapIntDivByZero:
		return "int_divz"
	case TrapIntOverflow:
		return "int_ovf"
	default:
		return fmt.Sprintf("TrapCode(%d)", c)
	}
}
