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
	"encoding/binary"
	"fmt"
	"math"
)

// TrapError is returned by Exec when execution reaches a trap.
type TrapError struct {
	Code TrapCode
	Note string
}

func (e *TrapError) Error() string {
	if e.Note != "" {
		return fmt.Sprintf("trap %s: %s", e.Code, e.Note)
	}
	return "trap " + e.Code.String()
}

// Memory is the stack memory of one execution of a Function.
type Memory struct {
	Order binary.ByteOrder
	slots [][]byte
}

// NewMemory allocates zeroed memory for every stack slot of fn.
func NewMemory(fn *Function, order binary.ByteOrder) *Memory {
	m := &Memory{Order: order, slots: make([][]byte, len(fn.Slots))}
	for i, s := range fn.Slots {
		m.slots[i] = make([]byte, s.Size)
	}
	return m
}

// Bytes returns the backing bytes of a slot.
func (m *Memory) Bytes(slot StackSlot) []byte {
	return m.slots[slot]
}

// Load reads a value of type t from slot+offset as a bit pattern.
func (m *Memory) Load(t Type, slot StackSlot, offset int) uint64 {
	b := m.slots[slot][offset:]
	switch t.Bytes() {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(m.Order.Uint16(b))
	case 4:
		return uint64(m.Order.Uint32(b))
	default:
		return m.Order.Uint64(b)
	}
}

// Store writes the low bits of x as type t to slot+offset.
func (m *Memory) Store(t Type, slot StackSlot, offset int, x uint64) {
	b := m.slots[slot][offset:]
	switch t.Bytes() {
	case 1:
		b[0] = byte(x)
	case 2:
		m.Order.PutUint16(b, uint16(x))
	case 4:
		m.Order.PutUint32(b, uint32(x))
	default:
		m.Order.PutUint64(b, x)
	}
}

// Runtime resolves imported functions by name during Exec. Arguments and
// results are bit patterns.
type Runtime map[string]func(args []uint64) []uint64

// StdRuntime returns the C-library routines the lowering may call.
func StdRuntime() Runtime {
	return Runtime{
		"fmod": func(a []uint64) []uint64 {
			return []uint64{math.Float64bits(math.Mod(math.Float64frombits(a[0]), math.Float64frombits(a[1])))}
		},
		"fmodf": func(a []uint64) []uint64 {
			// The float32 remainder is exactly representable, so computing
			// it in float64 and narrowing is exact.
			r := math.Mod(float64(f32(a[0])), float64(f32(a[1])))
			return []uint64{uint64(math.Float32bits(float32(r)))}
		},
		"round": func(a []uint64) []uint64 {
			return []uint64{math.Float64bits(math.Round(math.Float64frombits(a[0])))}
		},
		"roundf": func(a []uint64) []uint64 {
			return []uint64{uint64(math.Float32bits(float32(math.Round(float64(f32(a[0]))))))}
		},
	}
}

// Exec runs fn from its entry block against mem. It returns nil when a return
// is reached and a *TrapError when a trap is reached.
func Exec(fn *Function, mem *Memory, rt Runtime) error {
	regs := make([]uint64, fn.NumValues()+1)
	blk := fn.Blocks[0]
	for _, inst := range blk.Insts {
		if err := step(fn, inst, regs, mem, rt); err != nil {
			return err
		}
		if inst.Op == OpReturn {
			return nil
		}
	}
	return fmt.Errorf("block%d fell off the end", blk.ID)
}

func f32(x uint64) float32 { return math.Float32frombits(uint32(x)) }
func f64(x uint64) float64 { return math.Float64frombits(x) }

func sext(x uint64, bits int) int64 {
	if bits >= 64 {
		return int64(x)
	}
	shift := uint(64 - bits)
	return int64(x<<shift) >> shift
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func step(fn *Function, inst *Inst, regs []uint64, mem *Memory, rt Runtime) error {
	arg := func(i int) uint64 { return regs[inst.Args[i]] }
	argType := func(i int) Type { return fn.ValueType(inst.Args[i]) }
	set := func(x uint64) { regs[inst.Results[0]] = truncBits(x, inst.Type.Bits()) }

	switch inst.Op {
	case OpIconst, OpF32const, OpF64const:
		set(inst.Imm)

	case OpIadd, OpIsub, OpImul, OpBand, OpBor, OpBxor, OpIshl, OpUshr, OpSshr:
		set(intBinary(inst.Op, inst.Type.Bits(), arg(0), arg(1)))
	case OpUdiv, OpSdiv, OpUrem, OpSrem:
		r, err := intDivide(inst.Op, inst.Type.Bits(), arg(0), arg(1))
		if err != nil {
			return err
		}
		set(r)
	case OpIneg:
		set(-arg(0))

	case OpFadd, OpFsub, OpFmul, OpFdiv, OpFcopysign:
		set(floatBinary(inst.Op, inst.Type, arg(0), arg(1)))
	case OpFneg, OpFabs, OpSqrt, OpCeil, OpFloor, OpTrunc:
		set(floatUnary(inst.Op, inst.Type, arg(0)))

	case OpIcmp:
		bits := argType(0).Bits()
		set(b2u(intCompare(IntCC(inst.Cond), bits, arg(0), arg(1))))
	case OpIcmpImm:
		bits := argType(0).Bits()
		set(b2u(intCompare(IntCC(inst.Cond), bits, arg(0), inst.Imm)))
	case OpFcmp:
		set(b2u(floatCompare(FloatCC(inst.Cond), argType(0), arg(0), arg(1))))
	case OpBint:
		set(arg(0) & 1)
	case OpSelect:
		if arg(0) != 0 {
			set(arg(1))
		} else {
			set(arg(2))
		}

	case OpSextend:
		set(uint64(sext(arg(0), argType(0).Bits())))
	case OpUextend, OpIreduce, OpBitcast:
		set(arg(0))
	case OpFcvtFromSint, OpFcvtFromUint:
		set(intToFloat(inst.Op == OpFcvtFromSint, argType(0).Bits(), inst.Type, arg(0)))
	case OpFcvtToSintSat, OpFcvtToUintSat:
		set(floatToIntSat(inst.Op == OpFcvtToSintSat, argType(0), inst.Type.Bits(), arg(0)))
	case OpFpromote:
		set(math.Float64bits(float64(f32(arg(0)))))
	case OpFdemote:
		set(uint64(math.Float32bits(float32(f64(arg(0))))))

	case OpStackLoad:
		set(mem.Load(inst.Type, inst.Slot, inst.Offset))
	case OpStackStore:
		mem.Store(argType(0), inst.Slot, inst.Offset, arg(0))
	case OpStackCopy:
		n := int(inst.Imm)
		copy(mem.slots[inst.DstSlot][inst.DstOffset:inst.DstOffset+n], mem.slots[inst.Slot][inst.Offset:inst.Offset+n])

	case OpCall:
		sig := fn.Imports[inst.Callee]
		impl, ok := rt[sig.Name]
		if !ok {
			return fmt.Errorf("call to unresolved function %q", sig.Name)
		}
		args := make([]uint64, len(inst.Args))
		for i := range inst.Args {
			args[i] = arg(i)
		}
		res := impl(args)
		for i, r := range inst.Results {
			regs[r] = truncBits(res[i], sig.Returns[i].Bits())
		}

	case OpTrap:
		return &TrapError{Code: inst.Trap, Note: inst.Note}
	case OpReturn:
	default:
		return fmt.Errorf("cannot execute %s", inst.Op)
	}
	return nil
}

func intBinary(op Opcode, bits int, x, y uint64) uint64 {
	amount := y & uint64(bits-1)
	switch op {
	case OpIadd:
		return x + y
	case OpIsub:
		return x - y
	case OpImul:
		return x * y
	case OpBand:
		return x & y
	case OpBor:
		return x | y
	case OpBxor:
		return x ^ y
	case OpIshl:
		return x << amount
	case OpUshr:
		return truncBits(x, bits) >> amount
	case OpSshr:
		return uint64(sext(x, bits) >> amount)
	}
	panic("unreachable")
}

func intDivide(op Opcode, bits int, x, y uint64) (uint64, error) {
	if truncBits(y, bits) == 0 {
		return 0, &TrapError{Code: TrapIntDivByZero}
	}
	switch op {
	case OpUdiv:
		return x / y, nil
	case OpUrem:
		return x % y, nil
	}
	sx, sy := sext(x, bits), sext(y, bits)
	minVal := int64(-1) << uint(bits-1)
	switch op {
	case OpSdiv:
		if sx == minVal && sy == -1 {
			return 0, &TrapError{Code: TrapIntOverflow}
		}
		return uint64(sx / sy), nil
	default:
		if sy == -1 {
			return 0, nil
		}
		return uint64(sx % sy), nil
	}
}

func intCompare(cc IntCC, bits int, x, y uint64) bool {
	ux, uy := truncBits(x, bits), truncBits(y, bits)
	sx, sy := sext(x, bits), sext(y, bits)
	switch cc {
	case IntEqual:
		return ux == uy
	case IntNotEqual:
		return ux != uy
	case IntSignedLessThan:
		return sx < sy
	case IntSignedLessThanOrEqual:
		return sx <= sy
	case IntSignedGreaterThan:
		return sx > sy
	case IntSignedGreaterThanOrEqual:
		return sx >= sy
	case IntUnsignedLessThan:
		return ux < uy
	case IntUnsignedLessThanOrEqual:
		return ux <= uy
	case IntUnsignedGreaterThan:
		return ux > uy
	case IntUnsignedGreaterThanOrEqual:
		return ux >= uy
	}
	panic("unreachable")
}

func floatBinary(op Opcode, t Type, x, y uint64) uint64 {
	if t == F32 {
		a, b := f32(x), f32(y)
		var r float32
		switch op {
		case OpFadd:
			r = a + b
		case OpFsub:
			r = a - b
		case OpFmul:
			r = a * b
		case OpFdiv:
			r = a / b
		case OpFcopysign:
			r = float32(math.Copysign(float64(a), float64(b)))
		}
		return uint64(math.Float32bits(r))
	}
	a, b := f64(x), f64(y)
	var r float64
	switch op {
	case OpFadd:
		r = a + b
	case OpFsub:
		r = a - b
	case OpFmul:
		r = a * b
	case OpFdiv:
		r = a / b
	case OpFcopysign:
		r = math.Copysign(a, b)
	}
	return math.Float64bits(r)
}

func floatUnary(op Opcode, t Type, x uint64) uint64 {
	sign := uint64(1) << uint(t.Bits()-1)
	switch op {
	case OpFneg:
		return x ^ sign
	case OpFabs:
		return x &^ sign
	}
	var fn func(float64) float64
	switch op {
	case OpSqrt:
		fn = math.Sqrt
	case OpCeil:
		fn = math.Ceil
	case OpFloor:
		fn = math.Floor
	case OpTrunc:
		fn = math.Trunc
	}
	if t == F32 {
		// Exact for ceil/floor/trunc, and correctly rounded for sqrt since
		// float64 carries more than twice the float32 precision.
		return uint64(math.Float32bits(float32(fn(float64(f32(x))))))
	}
	return math.Float64bits(fn(f64(x)))
}

func floatCompare(cc FloatCC, t Type, x, y uint64) bool {
	var a, b float64
	if t == F32 {
		a, b = float64(f32(x)), float64(f32(y))
	} else {
		a, b = f64(x), f64(y)
	}
	switch cc {
	case FloatEqual:
		return a == b
	case FloatNotEqual:
		return a != b
	case FloatLessThan:
		return a < b
	case FloatLessThanOrEqual:
		return a <= b
	case FloatGreaterThan:
		return a > b
	case FloatGreaterThanOrEqual:
		return a >= b
	}
	panic("unreachable")
}

func intToFloat(signed bool, bits int, t Type, x uint64) uint64 {
	if signed {
		s := sext(x, bits)
		if t == F32 {
			return uint64(math.Float32bits(float32(s)))
		}
		return math.Float64bits(float64(s))
	}
	u := truncBits(x, bits)
	if t == F32 {
		return uint64(math.Float32bits(float32(u)))
	}
	return math.Float64bits(float64(u))
}

func floatToIntSat(signed bool, from Type, bits int, x uint64) uint64 {
	var f float64
	if from == F32 {
		f = float64(f32(x))
	} else {
		f = f64(x)
	}
	if math.IsNaN(f) {
		return 0
	}
	f = math.Trunc(f)
	if signed {
		lo := -math.Ldexp(1, bits-1)
		hi := math.Ldexp(1, bits-1)
		switch {
		case f <= lo:
			return uint64(int64(-1) << uint(bits-1))
		case f >= hi:
			return uint64(1)<<uint(bits-1) - 1
		}
		return uint64(int64(f))
	}
	hi := math.Ldexp(1, bits)
	switch {
	case f <= 0:
		return 0
	case f >= hi:
		return truncBits(math.MaxUint64, bits)
	}
	return uint64(f)
}
