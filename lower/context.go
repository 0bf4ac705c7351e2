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
	"encoding/binary"

	"github.com/ajroetker/simdlower/diag"
	"github.com/ajroetker/simdlower/ir"
)

// FunctionCx is the explicit lowering context of one function compilation.
// It owns the instruction cursor and the diagnostic sink of that function
// and is never shared between functions.
type FunctionCx struct {
	// B is the insertion cursor into the function's instruction stream.
	B *ir.Builder

	// Sink receives user-facing diagnostics.
	Sink diag.Sink

	// Consts resolves operands that must be compile-time constants.
	Consts ConstEvaluator

	// Lib lowers calls to C-library numeric routines.
	Lib NumericLib

	// Order is the target byte order, used to decode constant bytes.
	Order binary.ByteOrder
}

// Option configures a FunctionCx.
type Option func(*FunctionCx)

// WithConsts sets the constant-evaluation service.
func WithConsts(c ConstEvaluator) Option {
	return func(cx *FunctionCx) {
		cx.Consts = c
	}
}

// WithNumericLib sets how fmod and round are lowered.
func WithNumericLib(lib NumericLib) Option {
	return func(cx *FunctionCx) {
		cx.Lib = lib
	}
}

// WithByteOrder sets the target byte order.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(cx *FunctionCx) {
		cx.Order = order
	}
}

// NewFunctionCx creates a lowering context. Defaults: StaticConsts, Libm and
// little-endian.
func NewFunctionCx(b *ir.Builder, sink diag.Sink, opts ...Option) *FunctionCx {
	cx := &FunctionCx{
		B:      b,
		Sink:   sink,
		Consts: StaticConsts{},
		Lib:    Libm{},
		Order:  binary.LittleEndian,
	}
	for _, opt := range opts {
		opt(cx)
	}
	return cx
}

// Operand is one argument of an intrinsic call.
type Operand struct {
	Value Value

	// Const holds the compile-time bytes of the operand, as produced by the
	// front end, or nil when the operand is not constant.
	Const []byte
}

// Call is one intrinsic call to lower.
type Call struct {
	Name string
	Args []Operand
	Ret  Place
	Span diag.Span
}

// ConstEvaluator evaluates an operand to its compile-time bytes.
type ConstEvaluator interface {
	EvalConst(op Operand) ([]byte, bool)
}

// StaticConsts returns the bytes the front end attached to the operand.
type StaticConsts struct{}

// EvalConst implements ConstEvaluator.
func (StaticConsts) EvalConst(op Operand) ([]byte, bool) {
	return op.Const, op.Const != nil
}

// readUint reads an unsigned integer of size bytes.
func readUint(order binary.ByteOrder, b []byte, size int) (uint64, bool) {
	if len(b) < size {
		return 0, false
	}
	switch size {
	case 1:
		return uint64(b[0]), true
	case 2:
		return uint64(order.Uint16(b)), true
	case 4:
		return uint64(order.Uint32(b)), true
	case 8:
		return order.Uint64(b), true
	}
	return 0, false
}
