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

// Lower emits the instructions for one SIMD intrinsic call at the builder's
// current position.
//
// It returns nil when the call was lowered, and also when a recoverable
// problem was reported to the sink; in that case the emitted code traps. It
// returns a *FatalError when compilation of the unit must stop and an
// *InternalError when the front end broke an invariant.
func Lower(cx *FunctionCx, call *Call) error {
	in := ParseIntrinsic(call.Name)
	switch {
	case in.Op == OpUnknown:
		return cx.fatalf(call.Span, "unknown SIMD intrinsic `%s`", call.Name)
	case !in.Op.Implemented():
		return cx.fatalf(call.Span, "SIMD intrinsic `%s` is not implemented", call.Name)
	}
	if want := in.Op.Arity(); len(call.Args) != want {
		return internalf(call.Name, nil, "got %d arguments, want %d", len(call.Args), want)
	}

	switch in.Op {
	case OpShuffle:
		return cx.shuffle(call, in)
	case OpInsert:
		return cx.insert(call)
	case OpExtract:
		return cx.extract(call)
	case OpSelect:
		return cx.selectLanes(call)
	}

	// Everything else takes a vector as its first operand.
	v := call.Args[0].Value
	if !cx.validateSIMD(call, v.Type()) {
		return nil
	}
	name := call.Name

	switch op := in.Op; op {
	case OpCast:
		return cx.forEachLane(call, v, call.Ret, func(in, out LaneKind, x ir.Value) (ir.Value, error) {
			return cx.castLane(name, in, out, x)
		})

	case OpNeg, OpFabs, OpFsqrt, OpCeil, OpFloor, OpTrunc, OpRound:
		return cx.forEachLane(call, v, call.Ret, func(in, _ LaneKind, x ir.Value) (ir.Value, error) {
			return cx.unaryLane(name, op, in, x)
		})

	case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpShl, OpShr, OpAnd, OpOr, OpXor:
		return cx.pairForEachLane(call, v, call.Args[1].Value, call.Ret, func(in, _ LaneKind, x, y ir.Value) (ir.Value, error) {
			return cx.binaryLane(name, op, in, x, y)
		})

	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return cx.pairForEachLane(call, v, call.Args[1].Value, call.Ret, func(in, out LaneKind, x, y ir.Value) (ir.Value, error) {
			return cx.compareLane(name, op, in, out, x, y)
		})

	case OpFmin, OpFmax:
		return cx.pairForEachLane(call, v, call.Args[1].Value, call.Ret, func(in, _ LaneKind, x, y ir.Value) (ir.Value, error) {
			return cx.minMaxLane(name, op, in, x, y)
		})

	case OpFma:
		return cx.tripleForEachLane(call, v, call.Args[1].Value, call.Args[2].Value, call.Ret,
			func(in, _ LaneKind, x, y, z ir.Value) (ir.Value, error) {
				return cx.fmaLane(name, in, x, y, z)
			})

	case OpReduceAddOrdered, OpReduceAddUnordered:
		seed := call.Args[1].Value
		return cx.reduce(call, v, call.Ret, Reduction{
			Combine: cx.addCombine,
			Seed:    &seed,
			Ordered: op == OpReduceAddOrdered,
		})

	case OpReduceMulOrdered, OpReduceMulUnordered:
		seed := call.Args[1].Value
		return cx.reduce(call, v, call.Ret, Reduction{
			Combine: cx.mulCombine,
			Seed:    &seed,
			Ordered: op == OpReduceMulOrdered,
		})

	case OpReduceAll:
		return cx.reduceBool(call, v, call.Ret, ir.OpBand)
	case OpReduceAny:
		return cx.reduceBool(call, v, call.Ret, ir.OpBor)

	case OpReduceAnd:
		return cx.reduce(call, v, call.Ret, Reduction{Combine: cx.bitwiseCombine(name, ir.OpBand)})
	case OpReduceOr:
		return cx.reduce(call, v, call.Ret, Reduction{Combine: cx.bitwiseCombine(name, ir.OpBor)})
	case OpReduceXor:
		return cx.reduce(call, v, call.Ret, Reduction{Combine: cx.bitwiseCombine(name, ir.OpBxor)})

	case OpReduceMin:
		return cx.reduce(call, v, call.Ret, Reduction{Combine: cx.minMaxCombine(name, false)})
	case OpReduceMax:
		return cx.reduce(call, v, call.Ret, Reduction{Combine: cx.minMaxCombine(name, true)})
	}
	return internalf(call.Name, nil, "no lowering for %s", in.Op)
}
