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

// validateSIMD reports whether t is a vector type. Otherwise it reports an
// error at the call and makes the current program point unreachable; the
// caller must then stop lowering this call without an error.
func (cx *FunctionCx) validateSIMD(call *Call, t Type) bool {
	if IsSIMD(t) {
		return true
	}
	diag.Errorf(cx.Sink, call.Span,
		"invalid monomorphization of `%s` intrinsic: expected SIMD input type, found non-SIMD `%s`",
		call.Name, t)
	// Keep the function well formed for later passes.
	cx.B.Trap(ir.TrapUnreachable, "compilation should not have succeeded")
	return false
}

// sameShape returns an InternalError unless a and b are the same vector type.
func sameShape(name string, a, b Type) error {
	if a != b {
		return internalf(name, nil, "operand types %s and %s differ", a, b)
	}
	return nil
}

// vectorDest returns the destination vector type, or an InternalError if the
// destination is not a vector of n lanes.
func vectorDest(name string, ret Place, n int) (VectorType, error) {
	vt, ok := ret.Type().(VectorType)
	if !ok {
		return VectorType{}, internalf(name, nil, "destination %s is not a vector", ret.Type())
	}
	if vt.Lanes != n {
		return VectorType{}, internalf(name, nil, "destination has %d lanes, want %d", vt.Lanes, n)
	}
	return vt, nil
}
