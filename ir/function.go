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

package ir

import (
	"fmt"
	"strings"
)

// Opcode identifies the operation performed by an instruction.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Constants. Imm holds the bit pattern.
	OpIconst
	OpF32const
	OpF64const

	// Integer arithmetic.
	OpIadd
	OpIsub
	OpImul
	OpUdiv
	OpSdiv
	OpUrem
	OpSrem
	OpIneg

	// Bitwise and shifts. Shift amounts are taken modulo the bit width.
	OpBand
	OpBor
	OpBxor
	OpIshl
	OpUshr
	OpSshr

	// Float arithmetic.
	OpFadd
	OpFsub
	OpFmul
	OpFdiv
	OpFneg
	OpFabs
	OpSqrt
	OpCeil
	OpFloor
	OpTrunc
	OpFcopysign

	// Comparisons produce an i8 that is 0 or 1.
	OpIcmp
	OpIcmpImm
	OpFcmp

	// OpBint converts an i8 boolean to 0 or 1 of the result type.
	OpBint

	// OpSelect picks Args[1] if Args[0] is nonzero, Args[2] otherwise.
	OpSelect

	// Conversions.
	OpSextend
	OpUextend
	OpIreduce
	OpFcvtFromSint
	OpFcvtFromUint
	OpFcvtToSintSat
	OpFcvtToUintSat
	OpFpromote
	OpFdemote
	OpBitcast

	// Memory.
	OpStackLoad
	OpStackStore
	OpStackCopy

	// Calls to imported functions.
	OpCall

	// Terminators.
	OpTrap
	OpReturn
)

var opcodeNames = [...]string{
	OpInvalid:       "invalid",
	OpIconst:        "iconst",
	OpF32const:      "f32const",
	OpF64const:      "f64const",
	OpIadd:          "iadd",
	OpIsub:          "isub",
	OpImul:          "imul",
	OpUdiv:          "udiv",
	OpSdiv:          "sdiv",
	OpUrem:          "urem",
	OpSrem:          "srem",
	OpIneg:          "ineg",
	OpBand:          "band",
	OpBor:           "bor",
	OpBxor:          "bxor",
	OpIshl:          "ishl",
	OpUshr:          "ushr",
	OpSshr:          "sshr",
	OpFadd:          "fadd",
	OpFsub:          "fsub",
	OpFmul:          "fmul",
	OpFdiv:          "fdiv",
	OpFneg:          "fneg",
	OpFabs:          "fabs",
	OpSqrt:          "sqrt",
	OpCeil:          "ceil",
	OpFloor:         "floor",
	OpTrunc:         "trunc",
	OpFcopysign:     "fcopysign",
	OpIcmp:          "icmp",
	OpIcmpImm:       "icmp_imm",
	OpFcmp:          "fcmp",
	OpBint:          "bint",
	OpSelect:        "select",
	OpSextend:       "sextend",
	OpUextend:       "uextend",
	OpIreduce:       "ireduce",
	OpFcvtFromSint:  "fcvt_from_sint",
	OpFcvtFromUint:  "fcvt_from_uint",
	OpFcvtToSintSat: "fcvt_to_sint_sat",
	OpFcvtToUintSat: "fcvt_to_uint_sat",
	OpFpromote:      "fpromote",
	OpFdemote:       "fdemote",
	OpBitcast:       "bitcast",
	OpStackLoad:     "stack_load",
	OpStackStore:    "stack_store",
	OpStackCopy:     "stack_copy",
	OpCall:          "call",
	OpTrap:          "trap",
	OpReturn:        "return",
}

// String returns the textual mnemonic of the opcode.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// IsTerminator reports whether the opcode ends a block.
func (op Opcode) IsTerminator() bool {
	return op == OpTrap || op == OpReturn
}

// Inst is a single instruction.
type Inst struct {
	Op Opcode

	// Type is the controlling type: the result type for value-producing
	// instructions, the stored type for stack_store.
	Type Type

	// Args are the value operands.
	Args []Value

	// Results are the values defined by this instruction (zero or one, or
	// several for calls).
	Results []Value

	// Imm is the immediate: constant bits, the icmp_imm operand, or the
	// byte count of stack_copy.
	Imm uint64

	// Cond is an IntCC or FloatCC for comparisons.
	Cond uint8

	// Slot and Offset address stack memory. DstSlot/DstOffset are the
	// destination of stack_copy.
	Slot      StackSlot
	Offset    int
	DstSlot   StackSlot
	DstOffset int

	// Callee is the imported function of a call.
	Callee FuncRef

	// Trap is the trap code and Note an optional message for trap.
	Trap TrapCode
	Note string
}

// Result returns the single result of the instruction.
func (inst *Inst) Result() Value {
	if len(inst.Results) == 0 {
		return 0
	}
	return inst.Results[0]
}

// Block is a straight-line sequence of instructions ending in a terminator.
type Block struct {
	ID    int
	Insts []*Inst
}

// Terminated reports whether the block already ends in a terminator.
func (b *Block) Terminated() bool {
	return len(b.Insts) > 0 && b.Insts[len(b.Insts)-1].Op.IsTerminator()
}

// SlotData describes a stack slot.
type SlotData struct {
	Size int
	Name string
}

// Function is a compiled function: stack slots, imported signatures, blocks
// and the types of all SSA values.
type Function struct {
	Name    string
	Slots   []SlotData
	Imports []Signature
	Blocks  []*Block

	// valueTypes[v-1] is the type of Value v.
	valueTypes []Type
}

// NewFunction creates an empty function with a single entry block.
func NewFunction(name string) *Function {
	return &Function{
		Name:   name,
		Blocks: []*Block{{ID: 0}},
	}
}

// NumValues returns the number of SSA values defined so far.
func (f *Function) NumValues() int {
	return len(f.valueTypes)
}

// ValueType returns the type of v, or TypeInvalid if v is not defined.
func (f *Function) ValueType(v Value) Type {
	if v == 0 || int(v) > len(f.valueTypes) {
		return TypeInvalid
	}
	return f.valueTypes[v-1]
}

func (f *Function) newValue(t Type) Value {
	f.valueTypes = append(f.valueTypes, t)
	return Value(len(f.valueTypes))
}

// SlotSize returns the size in bytes of the slot, or -1 if it does not exist.
func (f *Function) SlotSize(s StackSlot) int {
	if int(s) >= len(f.Slots) {
		return -1
	}
	return f.Slots[s].Size
}

// NumInsts returns the total number of instructions across all blocks.
func (f *Function) NumInsts() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Insts)
	}
	return n
}

// CountOp returns the number of instructions with the given opcode.
func (f *Function) CountOp(op Opcode) int {
	n := 0
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if inst.Op == op {
				n++
			}
		}
	}
	return n
}

// String returns a debug summary of the function.
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Function{Name:%s Slots:%d Blocks:%d Insts:%d", f.Name, len(f.Slots), len(f.Blocks), f.NumInsts())
	if len(f.Imports) > 0 {
		fmt.Fprintf(&sb, " Imports:%d", len(f.Imports))
	}
	sb.WriteString("}")
	return sb.String()
}
