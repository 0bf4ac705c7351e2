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
	"errors"
	"fmt"
)

// VerifyError describes a malformed instruction.
type VerifyError struct {
	Block int
	Index int
	Inst  *Inst
	Msg   string
}

func (e *VerifyError) Error() string {
	if e.Inst == nil {
		return fmt.Sprintf("block%d: %s", e.Block, e.Msg)
	}
	return fmt.Sprintf("block%d[%d] %s: %s", e.Block, e.Index, e.Inst.Op, e.Msg)
}

// Verify checks that fn is well formed:
//   - every block ends with exactly one terminator,
//   - every value is defined before it is used,
//   - operand types agree with the opcode,
//   - stack accesses stay inside their slot.
//
// All problems found are joined into the returned error.
func Verify(fn *Function) error {
	v := verifier{fn: fn, defined: make([]bool, fn.NumValues()+1)}
	for _, blk := range fn.Blocks {
		v.block(blk)
	}
	return errors.Join(v.errs...)
}

type verifier struct {
	fn      *Function
	defined []bool
	errs    []error
}

func (v *verifier) errorf(blk, idx int, inst *Inst, format string, args ...any) {
	v.errs = append(v.errs, &VerifyError{Block: blk, Index: idx, Inst: inst, Msg: fmt.Sprintf(format, args...)})
}

func (v *verifier) block(blk *Block) {
	if len(blk.Insts) == 0 {
		v.errorf(blk.ID, 0, nil, "empty block")
		return
	}
	for i, inst := range blk.Insts {
		last := i == len(blk.Insts)-1
		if inst.Op.IsTerminator() && !last {
			v.errorf(blk.ID, i, inst, "terminator in the middle of a block")
		}
		if last && !inst.Op.IsTerminator() {
			v.errorf(blk.ID, i, inst, "block does not end in a terminator")
		}
		for _, a := range inst.Args {
			if int(a) >= len(v.defined) || a == 0 || !v.defined[a] {
				v.errorf(blk.ID, i, inst, "use of undefined value %s", a)
			}
		}
		v.types(blk.ID, i, inst)
		for _, r := range inst.Results {
			v.defined[r] = true
		}
	}
}

func (v *verifier) argType(inst *Inst, i int) Type {
	if i >= len(inst.Args) {
		return TypeInvalid
	}
	return v.fn.ValueType(inst.Args[i])
}

func (v *verifier) types(blk, idx int, inst *Inst) {
	want := func(n int) bool {
		if len(inst.Args) != n {
			v.errorf(blk, idx, inst, "want %d operands, have %d", n, len(inst.Args))
			return false
		}
		return true
	}
	switch inst.Op {
	case OpIadd, OpIsub, OpImul, OpUdiv, OpSdiv, OpUrem, OpSrem,
		OpBand, OpBor, OpBxor, OpIshl, OpUshr, OpSshr:
		if want(2) && (!v.argType(inst, 0).IsInt() || v.argType(inst, 0) != v.argType(inst, 1)) {
			v.errorf(blk, idx, inst, "operands %s, %s are not matching integers", v.argType(inst, 0), v.argType(inst, 1))
		}
	case OpFadd, OpFsub, OpFmul, OpFdiv, OpFcopysign:
		if want(2) && (!v.argType(inst, 0).IsFloat() || v.argType(inst, 0) != v.argType(inst, 1)) {
			v.errorf(blk, idx, inst, "operands %s, %s are not matching floats", v.argType(inst, 0), v.argType(inst, 1))
		}
	case OpIneg:
		if want(1) && !v.argType(inst, 0).IsInt() {
			v.errorf(blk, idx, inst, "operand %s is not an integer", v.argType(inst, 0))
		}
	case OpFneg, OpFabs, OpSqrt, OpCeil, OpFloor, OpTrunc:
		if want(1) && !v.argType(inst, 0).IsFloat() {
			v.errorf(blk, idx, inst, "operand %s is not a float", v.argType(inst, 0))
		}
	case OpIcmp:
		if want(2) && (!v.argType(inst, 0).IsInt() || v.argType(inst, 0) != v.argType(inst, 1)) {
			v.errorf(blk, idx, inst, "operands %s, %s are not matching integers", v.argType(inst, 0), v.argType(inst, 1))
		}
	case OpIcmpImm:
		if want(1) && !v.argType(inst, 0).IsInt() {
			v.errorf(blk, idx, inst, "operand %s is not an integer", v.argType(inst, 0))
		}
	case OpFcmp:
		if want(2) && (!v.argType(inst, 0).IsFloat() || v.argType(inst, 0) != v.argType(inst, 1)) {
			v.errorf(blk, idx, inst, "operands %s, %s are not matching floats", v.argType(inst, 0), v.argType(inst, 1))
		}
	case OpBint:
		if want(1) && (v.argType(inst, 0) != I8 || !inst.Type.IsInt()) {
			v.errorf(blk, idx, inst, "bint.%s of %s", inst.Type, v.argType(inst, 0))
		}
	case OpSelect:
		if want(3) && (!v.argType(inst, 0).IsInt() || v.argType(inst, 1) != v.argType(inst, 2)) {
			v.errorf(blk, idx, inst, "select on %s between %s and %s", v.argType(inst, 0), v.argType(inst, 1), v.argType(inst, 2))
		}
	case OpSextend, OpUextend:
		if want(1) && (!inst.Type.IsInt() || inst.Type.Bits() <= v.argType(inst, 0).Bits() || !v.argType(inst, 0).IsInt()) {
			v.errorf(blk, idx, inst, "cannot extend %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpIreduce:
		if want(1) && (!inst.Type.IsInt() || inst.Type.Bits() >= v.argType(inst, 0).Bits() || !v.argType(inst, 0).IsInt()) {
			v.errorf(blk, idx, inst, "cannot reduce %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpFcvtFromSint, OpFcvtFromUint:
		if want(1) && (!inst.Type.IsFloat() || !v.argType(inst, 0).IsInt()) {
			v.errorf(blk, idx, inst, "cannot convert %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpFcvtToSintSat, OpFcvtToUintSat:
		if want(1) && (!inst.Type.IsInt() || !v.argType(inst, 0).IsFloat()) {
			v.errorf(blk, idx, inst, "cannot convert %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpFpromote:
		if want(1) && (v.argType(inst, 0) != F32 || inst.Type != F64) {
			v.errorf(blk, idx, inst, "cannot promote %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpFdemote:
		if want(1) && (v.argType(inst, 0) != F64 || inst.Type != F32) {
			v.errorf(blk, idx, inst, "cannot demote %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpBitcast:
		if want(1) && inst.Type.Bits() != v.argType(inst, 0).Bits() {
			v.errorf(blk, idx, inst, "cannot bitcast %s to %s", v.argType(inst, 0), inst.Type)
		}
	case OpStackLoad:
		v.slotAccess(blk, idx, inst, inst.Slot, inst.Offset, inst.Type.Bytes())
	case OpStackStore:
		if want(1) {
			v.slotAccess(blk, idx, inst, inst.Slot, inst.Offset, v.argType(inst, 0).Bytes())
		}
	case OpStackCopy:
		v.slotAccess(blk, idx, inst, inst.Slot, inst.Offset, int(inst.Imm))
		v.slotAccess(blk, idx, inst, inst.DstSlot, inst.DstOffset, int(inst.Imm))
	case OpCall:
		if int(inst.Callee) >= len(v.fn.Imports) {
			v.errorf(blk, idx, inst, "unknown callee %s", inst.Callee)
			return
		}
		sig := v.fn.Imports[inst.Callee]
		if !want(len(sig.Params)) {
			return
		}
		for i, p := range sig.Params {
			if v.argType(inst, i) != p {
				v.errorf(blk, idx, inst, "argument %d of %s is %s, want %s", i, sig.Name, v.argType(inst, i), p)
			}
		}
	case OpIconst, OpF32const, OpF64const, OpTrap, OpReturn:
	default:
		v.errorf(blk, idx, inst, "unknown opcode")
	}
}

func (v *verifier) slotAccess(blk, idx int, inst *Inst, slot StackSlot, offset, size int) {
	slotSize := v.fn.SlotSize(slot)
	if slotSize < 0 {
		v.errorf(blk, idx, inst, "unknown stack slot %s", slot)
		return
	}
	if offset < 0 || size <= 0 || offset+size > slotSize {
		v.errorf(blk, idx, inst, "access %s+%d (%d bytes) outside slot of %d bytes", slot, offset, size, slotSize)
	}
}
