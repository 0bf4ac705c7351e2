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
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Format renders fn in a textual form, one instruction per line:
//
//	function %name {
//	    ss0 = explicit_slot 16 ; x
//	    fn0 = %fmodf(f32, f32) -> f32
//
//	block0:
//	    v0 = stack_load.i32 ss0+0
//	    return
//	}
func Format(fn *Function) string {
	p := printer{fn: fn, buf: &bytes.Buffer{}}
	p.function()
	return p.buf.String()
}

type printer struct {
	fn  *Function
	buf *bytes.Buffer
}

func (p *printer) writef(format string, args ...any) {
	fmt.Fprintf(p.buf, format, args...)
}

func (p *printer) function() {
	p.writef("function %%%s {\n", p.fn.Name)
	for i, s := range p.fn.Slots {
		p.writef("    %s = explicit_slot %d", StackSlot(i), s.Size)
		if s.Name != "" {
			p.writef(" ; %s", s.Name)
		}
		p.writef("\n")
	}
	for i, sig := range p.fn.Imports {
		p.writef("    %s = %s\n", FuncRef(i), formatSignature(sig))
	}
	if len(p.fn.Slots) > 0 || len(p.fn.Imports) > 0 {
		p.writef("\n")
	}
	for i, blk := range p.fn.Blocks {
		if i > 0 {
			p.writef("\n")
		}
		p.writef("block%d:\n", blk.ID)
		for _, inst := range blk.Insts {
			p.writef("    %s\n", p.inst(inst))
		}
	}
	p.writef("}\n")
}

func formatSignature(sig Signature) string {
	params := lo.Map(sig.Params, func(t Type, _ int) string { return t.String() })
	s := fmt.Sprintf("%%%s(%s)", sig.Name, strings.Join(params, ", "))
	if len(sig.Returns) > 0 {
		rets := lo.Map(sig.Returns, func(t Type, _ int) string { return t.String() })
		s += " -> " + strings.Join(rets, ", ")
	}
	return s
}

func joinValues(vs []Value) string {
	return strings.Join(lo.Map(vs, func(v Value, _ int) string { return v.String() }), ", ")
}

func (p *printer) inst(inst *Inst) string {
	var lhs string
	if len(inst.Results) > 0 {
		lhs = joinValues(inst.Results) + " = "
	}
	switch inst.Op {
	case OpIconst:
		return fmt.Sprintf("%s%s.%s %d", lhs, inst.Op, inst.Type, signedImm(inst.Imm, inst.Type))
	case OpF32const:
		return fmt.Sprintf("%s%s %s", lhs, inst.Op, strconv.FormatFloat(float64(math.Float32frombits(uint32(inst.Imm))), 'g', -1, 32))
	case OpF64const:
		return fmt.Sprintf("%s%s %s", lhs, inst.Op, strconv.FormatFloat(math.Float64frombits(inst.Imm), 'g', -1, 64))
	case OpIcmp:
		return fmt.Sprintf("%s%s %s %s", lhs, inst.Op, IntCC(inst.Cond), joinValues(inst.Args))
	case OpIcmpImm:
		return fmt.Sprintf("%s%s %s %s, %d", lhs, inst.Op, IntCC(inst.Cond), joinValues(inst.Args), signedImm(inst.Imm, p.fn.ValueType(inst.Args[0])))
	case OpFcmp:
		return fmt.Sprintf("%s%s %s %s", lhs, inst.Op, FloatCC(inst.Cond), joinValues(inst.Args))
	case OpBint, OpSextend, OpUextend, OpIreduce, OpFcvtFromSint, OpFcvtFromUint,
		OpFcvtToSintSat, OpFcvtToUintSat, OpFpromote, OpFdemote, OpBitcast:
		return fmt.Sprintf("%s%s.%s %s", lhs, inst.Op, inst.Type, joinValues(inst.Args))
	case OpStackLoad:
		return fmt.Sprintf("%s%s.%s %s+%d", lhs, inst.Op, inst.Type, inst.Slot, inst.Offset)
	case OpStackStore:
		return fmt.Sprintf("%s %s, %s+%d", inst.Op, joinValues(inst.Args), inst.Slot, inst.Offset)
	case OpStackCopy:
		return fmt.Sprintf("%s %s+%d, %s+%d, %d", inst.Op, inst.DstSlot, inst.DstOffset, inst.Slot, inst.Offset, inst.Imm)
	case OpCall:
		return fmt.Sprintf("%s%s %s(%s)", lhs, inst.Op, inst.Callee, joinValues(inst.Args))
	case OpTrap:
		if inst.Note != "" {
			return fmt.Sprintf("%s %s ; %q", inst.Op, inst.Trap, inst.Note)
		}
		return fmt.Sprintf("%s %s", inst.Op, inst.Trap)
	case OpReturn:
		return inst.Op.String()
	default:
		return fmt.Sprintf("%s%s %s", lhs, inst.Op, joinValues(inst.Args))
	}
}

func signedImm(imm uint64, t Type) int64 {
	bits := t.Bits()
	if bits == 0 || bits >= 64 {
		return int64(imm)
	}
	shift := uint(64 - bits)
	return int64(imm<<shift) >> shift
}
