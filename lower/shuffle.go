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

// shuffle lowers simd_shuffle(x, y, idx) and simd_shuffleN. Output lane i is
// lane idx[i] of the concatenation of x and y.
func (cx *FunctionCx) shuffle(call *Call, in Intrinsic) error {
	x, y, idx := call.Args[0].Value, call.Args[1].Value, call.Args[2]
	if !cx.validateSIMD(call, x.Type()) {
		return nil
	}

	n := in.ShuffleLanes
	if n == 0 {
		at, ok := idx.Value.Type().(ArrayType)
		if !ok || at.Elem != Unsigned(32) {
			diag.Errorf(cx.Sink, call.Span,
				"simd_shuffle index must be an array of `u32`, got `%s`", idx.Value.Type())
			cx.B.Trap(ir.TrapUnreachable, "compilation should not have succeeded")
			return nil
		}
		n = at.Len
	}

	if err := sameShape(call.Name, x.Type(), y.Type()); err != nil {
		return err
	}
	vt := x.Type().(VectorType)
	rt, err := vectorDest(call.Name, call.Ret, n)
	if err != nil {
		return err
	}
	if rt.Elem != vt.Elem {
		return internalf(call.Name, vt.Elem, "destination lanes are %s", rt.Elem)
	}

	indexes, err := cx.shuffleIndexes(call, idx, n)
	if err != nil {
		return err
	}
	total := 2 * vt.Lanes
	for _, i := range indexes {
		if i >= uint64(total) {
			return cx.fatalf(call.Span, "shuffle index %d out of range 0..%d", i, total)
		}
	}

	for out, i := range indexes {
		var lane ir.Value
		if int(i) < vt.Lanes {
			lane = x.Lane(cx.B, int(i))
		} else {
			lane = y.Lane(cx.B, int(i)-vt.Lanes)
		}
		call.Ret.Lane(out).WriteScalar(cx.B, lane)
	}
	return nil
}

// shuffleIndexes decodes n u32 words in target byte order from the constant
// value of idx.
func (cx *FunctionCx) shuffleIndexes(call *Call, idx Operand, n int) ([]uint64, error) {
	raw, ok := cx.Consts.EvalConst(idx)
	if !ok {
		return nil, cx.fatalf(call.Span, "shuffle index argument for `%s` is not a constant", call.Name)
	}
	if len(raw) < 4*n {
		return nil, internalf(call.Name, nil, "index constant has %d bytes, want %d", len(raw), 4*n)
	}
	indexes := make([]uint64, n)
	for i := range indexes {
		indexes[i], _ = readUint(cx.Order, raw[4*i:], 4)
	}
	return indexes, nil
}
