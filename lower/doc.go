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

// Package lower rewrites portable SIMD intrinsic calls into scalar
// instructions of package ir.
//
// Every vector lives in a stack slot. An intrinsic is expanded lane by lane:
// each lane is loaded, combined with scalar operators chosen from the lane
// kind, and stored into the destination. The supported families are:
//
//   - lane maps: cast, neg, arithmetic, bitwise, shifts, comparisons,
//     fmin/fmax, fma and the float rounding functions
//   - reductions: add/mul (seeded), and/or/xor, min/max, all/any
//   - shuffle, insert and extract with constant lane indices
//   - select with a mask vector
//
// # Errors
//
// Lower distinguishes three outcomes beyond success. A recoverable misuse,
// such as a non-vector operand, is reported to the diagnostic sink and the
// emitted code traps; Lower returns nil so the rest of the function can be
// compiled. Misuse that makes further compilation meaningless, such as an
// out-of-range shuffle index, returns a *FatalError. Calls whose operand
// shapes the front end should already have rejected return an
// *InternalError.
//
// # NaN handling
//
// fmin, fmax, reduce_min and reduce_max are a comparison followed by a
// select. Comparisons involving NaN are false, so the second operand (the
// incoming lane, for reductions) is chosen whenever either side is NaN.
//
// Example:
//
//	fn := ir.NewFunction("add4")
//	b := ir.NewBuilder(fn)
//	cx := lower.NewFunctionCx(b, &diag.Collector{})
//	vt := lower.VectorType{Lanes: 4, Elem: lower.Signed(32)}
//	x, y := lower.NewPlace(b, vt, "x"), lower.NewPlace(b, vt, "y")
//	ret := lower.NewPlace(b, vt, "ret")
//	err := lower.Lower(cx, &lower.Call{
//		Name: "simd_add",
//		Args: []lower.Operand{{Value: x.Value()}, {Value: y.Value()}},
//		Ret:  ret,
//	})
package lower
