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
	"github.com/ajroetker/simdlower/diag"
	"github.com/ajroetker/simdlower/ir"
)

// constIndex evaluates a lane index operand.
func (cx *FunctionCx) constIndex(op Operand) (uint64, bool) {
	raw, ok := cx.Consts.EvalConst(op)
	if !ok {
		return 0, false
	}
	size := len(raw)
	if k, isKind := op.Value.Type().(LaneKind); isKind && k.Size() <= size {
		size = k.Size()
	}
	return readUint(cx.Order, raw, size)
}

// insert lowers simd_insert(base, idx, val): a copy of base with lane idx
// replaced by val.
func (cx *FunctionCx) insert(call *Call) error {
	base, idx, val := call.Args[0].Value, call.Args[1], call.Args[2].Value
	if !cx.validateSIMD(call, base.Type()) {
		return nil
	}
	i, ok := cx.constIndex(idx)
	if !ok {
		return cx.fatalf(call.Span, "index argument for `simd_insert` is not a constant")
	}
	vt := base.Type().(VectorType)
	if i >= uint64(vt.Lanes) {
		return cx.fatalf(call.Span, "[simd_insert] idx %d >= lane_count %d", i, vt.Lanes)
	}
	if call.Ret.Type() != base.Type() {
		return internalf(call.Name, vt.Elem, "destination %s differs from base", call.Ret.Type())
	}
	if val.Type() != Type(vt.Elem) {
		return internalf(call.Name, vt.Elem, "inserted value has type %s", val.Type())
	}

	call.Ret.Write(cx.B, base)
	call.Ret.Lane(int(i)).Write(cx.B, val)
	return nil
}

// extract lowers simd_extract(v, idx). A non-constant index is only a
// warning: the call traps at run time and the destination receives zero.
func (cx *FunctionCx) extract(call *Call) error {
	v, idx := call.Args[0].Value, call.Args[1]
	if !cx.validateSIMD(call, v.Type()) {
		return nil
	}
	vt := v.Type().(VectorType)
	out, isKind := call.Ret.Type().(LaneKind)
	if !isKind || out != vt.Elem {
		return internalf(call.Name, vt.Elem, "destination %s is not a lane", call.Ret.Type())
	}

	i, ok := cx.constIndex(idx)
	if !ok {
		const msg = "index argument for `simd_extract` is not a constant"
		diag.Warnf(cx.Sink, call.Span, msg)
		cx.B.Trap(ir.TrapUnimplemented, msg)
		call.Ret.WriteScalar(cx.B, cx.B.Const(out.IRType(), 0))
		return nil
	}
	if i >= uint64(vt.Lanes) {
		return cx.fatalf(call.Span, "[simd_extract] idx %d >= lane_count %d", i, vt.Lanes)
	}
	call.Ret.WriteScalar(cx.B, v.Lane(cx.B, int(i)))
	return nil
}
