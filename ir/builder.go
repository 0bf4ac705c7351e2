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
	"math"
)

// Builder appends instructions to a Function. It is the function's single
// insertion cursor and must not be shared between goroutines.
type Builder struct {
	fn  *Function
	cur *Block
}

// NewBuilder creates a builder positioned at the end of fn's last block.
func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn, cur: fn.Blocks[len(fn.Blocks)-1]}
}

// Func returns the function being built.
func (b *Builder) Func() *Function {
	return b.fn
}

// CurrentBlock returns the block instructions are appended to.
func (b *Builder) CurrentBlock() *Block {
	return b.cur
}

// CreateStackSlot allocates a stack slot of size bytes.
func (b *Builder) CreateStackSlot(size int, name string) StackSlot {
	b.fn.Slots = append(b.fn.Slots, SlotData{Size: size, Name: name})
	return StackSlot(len(b.fn.Slots) - 1)
}

// Import declares an external function and returns its reference. Importing
// the same signature twice returns the existing reference.
func (b *Builder) Import(sig Signature) FuncRef {
	for i, s := range b.fn.Imports {
		if s.Name == sig.Name {
			return FuncRef(i)
		}
	}
	b.fn.Imports = append(b.fn.Imports, sig)
	return FuncRef(len(b.fn.Imports) - 1)
}

func (b *Builder) append(inst *Inst) *Inst {
	if b.cur.Terminated() {
		// Keep emitting into a fresh block with no predecessors so the
		// function stays well formed.
		b.switchToNewBlock()
	}
	b.cur.Insts = append(b.cur.Insts, inst)
	return inst
}

func (b *Builder) switchToNewBlock() {
	blk := &Block{ID: len(b.fn.Blocks)}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	b.cur = blk
}

func (b *Builder) value(op Opcode, t Type, args ...Value) Value {
	inst := b.append(&Inst{Op: op, Type: t, Args: args})
	v := b.fn.newValue(t)
	inst.Results = []Value{v}
	return v
}

// Iconst materializes an integer constant. Bits above the type width are
// discarded.
func (b *Builder) Iconst(t Type, imm int64) Value {
	if !t.IsInt() {
		panic(fmt.Sprintf("ir: iconst of non-integer type %s", t))
	}
	inst := b.append(&Inst{Op: OpIconst, Type: t, Imm: truncBits(uint64(imm), t.Bits())})
	v := b.fn.newValue(t)
	inst.Results = []Value{v}
	return v
}

// F32const materializes a float32 constant.
func (b *Builder) F32const(x float32) Value {
	inst := b.append(&Inst{Op: OpF32const, Type: F32, Imm: uint64(math.Float32bits(x))})
	v := b.fn.newValue(F32)
	inst.Results = []Value{v}
	return v
}

// F64const materializes a float64 constant.
func (b *Builder) F64const(x float64) Value {
	inst := b.append(&Inst{Op: OpF64const, Type: F64, Imm: math.Float64bits(x)})
	v := b.fn.newValue(F64)
	inst.Results = []Value{v}
	return v
}

// Fconst materializes a float constant of type t.
func (b *Builder) Fconst(t Type, x float64) Value {
	if t == F32 {
		return b.F32const(float32(x))
	}
	return b.F64const(x)
}

// Const materializes a constant of any scalar type from its bit pattern.
func (b *Builder) Const(t Type, bits uint64) Value {
	switch t {
	case F32:
		return b.F32const(math.Float32frombits(uint32(bits)))
	case F64:
		return b.F64const(math.Float64frombits(bits))
	default:
		return b.Iconst(t, int64(bits))
	}
}

// Binary emits a two-operand arithmetic, bitwise or shift instruction. The
// result has the type of x.
func (b *Builder) Binary(op Opcode, x, y Value) Value {
	return b.value(op, b.fn.ValueType(x), x, y)
}

// Unary emits a one-operand instruction whose result has the type of x.
func (b *Builder) Unary(op Opcode, x Value) Value {
	return b.value(op, b.fn.ValueType(x), x)
}

// Icmp compares two integers and produces an i8 boolean.
func (b *Builder) Icmp(cc IntCC, x, y Value) Value {
	inst := b.append(&Inst{Op: OpIcmp, Type: I8, Args: []Value{x, y}, Cond: uint8(cc)})
	v := b.fn.newValue(I8)
	inst.Results = []Value{v}
	return v
}

// IcmpImm compares an integer with an immediate and produces an i8 boolean.
func (b *Builder) IcmpImm(cc IntCC, x Value, imm int64) Value {
	t := b.fn.ValueType(x)
	inst := b.append(&Inst{Op: OpIcmpImm, Type: I8, Args: []Value{x}, Cond: uint8(cc), Imm: truncBits(uint64(imm), t.Bits())})
	v := b.fn.newValue(I8)
	inst.Results = []Value{v}
	return v
}

// Fcmp compares two floats and produces an i8 boolean.
func (b *Builder) Fcmp(cc FloatCC, x, y Value) Value {
	inst := b.append(&Inst{Op: OpFcmp, Type: I8, Args: []Value{x, y}, Cond: uint8(cc)})
	v := b.fn.newValue(I8)
	inst.Results = []Value{v}
	return v
}

// Bint widens an i8 boolean to 0 or 1 of integer type t.
func (b *Builder) Bint(t Type, cond Value) Value {
	return b.value(OpBint, t, cond)
}

// Select returns x if cond is nonzero and y otherwise.
func (b *Builder) Select(cond, x, y Value) Value {
	return b.value(OpSelect, b.fn.ValueType(x), cond, x, y)
}

// Convert emits a conversion to type t.
func (b *Builder) Convert(op Opcode, t Type, x Value) Value {
	return b.value(op, t, x)
}

// StackLoad loads a value of type t from slot+offset.
func (b *Builder) StackLoad(t Type, slot StackSlot, offset int) Value {
	inst := b.append(&Inst{Op: OpStackLoad, Type: t, Slot: slot, Offset: offset})
	v := b.fn.newValue(t)
	inst.Results = []Value{v}
	return v
}

// StackStore stores x to slot+offset.
func (b *Builder) StackStore(x Value, slot StackSlot, offset int) {
	b.append(&Inst{Op: OpStackStore, Type: b.fn.ValueType(x), Args: []Value{x}, Slot: slot, Offset: offset})
}

// StackCopy copies size bytes from src+srcOffset to dst+dstOffset.
func (b *Builder) StackCopy(dst StackSlot, dstOffset int, src StackSlot, srcOffset int, size int) {
	b.append(&Inst{
		Op:        OpStackCopy,
		Slot:      src,
		Offset:    srcOffset,
		DstSlot:   dst,
		DstOffset: dstOffset,
		Imm:       uint64(size),
	})
}

// Call emits a call to an imported function and returns its results.
func (b *Builder) Call(fn FuncRef, args ...Value) []Value {
	sig := b.fn.Imports[fn]
	inst := b.append(&Inst{Op: OpCall, Args: args, Callee: fn})
	for _, t := range sig.Returns {
		inst.Results = append(inst.Results, b.fn.newValue(t))
	}
	if len(sig.Returns) > 0 {
		inst.Type = sig.Returns[0]
	}
	return inst.Results
}

// Trap terminates the current block with a trap. Instructions emitted after a
// trap go to a new block that has no predecessors.
func (b *Builder) Trap(code TrapCode, note string) {
	b.append(&Inst{Op: OpTrap, Trap: code, Note: note})
}

// Return terminates the current block with a return.
func (b *Builder) Return() {
	b.append(&Inst{Op: OpReturn})
}

// Finish closes the open block with a return. A block already ended by a trap
// is left as is.
func (b *Builder) Finish() {
	if b.cur.Terminated() {
		return
	}
	b.Return()
}

func truncBits(x uint64, bits int) uint64 {
	if bits >= 64 {
		return x
	}
	return x & (1<<uint(bits) - 1)
}
