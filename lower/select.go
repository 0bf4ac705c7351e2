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
	"github.com/ajroetker/simdlower/ir"
)

// selectLanes lowers simd_select(m, a, b): lane i is a[i] where m[i] is
// non-zero and b[i] otherwise.
func (cx *FunctionCx) selectLanes(call *Call) error {
	m, a, b := call.Args[0].Value, call.Args[1].Value, call.Args[2].Value
	if !cx.validateSIMD(call, m.Type()) || !cx.validateSIMD(call, a.Type()) {
		return nil
	}
	if err := sameShape(call.Name, a.Type(), b.Type()); err != nil {
		return err
	}
	mt, vt := m.Type().(VectorType), a.Type().(VectorType)
	if mt.Lanes != vt.Lanes {
		return internalf(call.Name, mt.Elem, "mask has %d lanes, values have %d", mt.Lanes, vt.Lanes)
	}
	if call.Ret.Type() != a.Type() {
		return internalf(call.Name, vt.Elem, "destination %s differs from operands", call.Ret.Type())
	}

	for i := range vt.Lanes {
		mask := cx.maskLane(mt.Elem, m.Lane(cx.B, i))
		cond := cx.B.IcmpImm(ir.IntNotEqual, mask, 0)
		lane := cx.B.Select(cond, a.Lane(cx.B, i), b.Lane(cx.B, i))
		call.Ret.Lane(i).WriteScalar(cx.B, lane)
	}
	return nil
}
