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
	"fmt"
	"strconv"
	"strings"
)

// Op is the closed set of SIMD intrinsics.
type Op int

const (
	// OpUnknown carries names that are not SIMD intrinsics at all.
	OpUnknown Op = iota

	OpCast

	// Comparisons.
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpShuffle
	OpInsert
	OpExtract

	// Elementwise arithmetic and bitwise operations.
	OpNeg
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpShl
	OpShr
	OpAnd
	OpOr
	OpXor
	OpFma
	OpFmin
	OpFmax
	OpRound
	OpFabs
	OpFsqrt
	OpCeil
	OpFloor
	OpTrunc

	// Reductions.
	OpReduceAddOrdered
	OpReduceAddUnordered
	OpReduceMulOrdered
	OpReduceMulUnordered
	OpReduceAll
	OpReduceAny
	OpReduceAnd
	OpReduceOr
	OpReduceXor
	OpReduceMin
	OpReduceMax

	OpSelect

	// Named but not implemented.
	OpBitmask
	OpGather
	OpScatter
	OpSaturatingAdd
	OpSaturatingSub

	numOps
)

var opNames = [numOps]string{
	OpUnknown:            "unknown",
	OpCast:               "cast",
	OpEq:                 "eq",
	OpNe:                 "ne",
	OpLt:                 "lt",
	OpLe:                 "le",
	OpGt:                 "gt",
	OpGe:                 "ge",
	OpShuffle:            "shuffle",
	OpInsert:             "insert",
	OpExtract:            "extract",
	OpNeg:                "neg",
	OpAdd:                "add",
	OpSub:                "sub",
	OpMul:                "mul",
	OpDiv:                "div",
	OpRem:                "rem",
	OpShl:                "shl",
	OpShr:                "shr",
	OpAnd:                "and",
	OpOr:                 "or",
	OpXor:                "xor",
	OpFma:                "fma",
	OpFmin:               "fmin",
	OpFmax:               "fmax",
	OpRound:              "round",
	OpFabs:               "fabs",
	OpFsqrt:              "fsqrt",
	OpCeil:               "ceil",
	OpFloor:              "floor",
	OpTrunc:              "trunc",
	OpReduceAddOrdered:   "reduce_add_ordered",
	OpReduceAddUnordered: "reduce_add_unordered",
	OpReduceMulOrdered:   "reduce_mul_ordered",
	OpReduceMulUnordered: "reduce_mul_unordered",
	OpReduceAll:          "reduce_all",
	OpReduceAny:          "reduce_any",
	OpReduceAnd:          "reduce_and",
	OpReduceOr:           "reduce_or",
	OpReduceXor:          "reduce_xor",
	OpReduceMin:          "reduce_min",
	OpReduceMax:          "reduce_max",
	OpSelect:             "select",
	OpBitmask:            "bitmask",
	OpGather:             "gather",
	OpScatter:            "scatter",
	OpSaturatingAdd:      "saturating_add",
	OpSaturatingSub:      "saturating_sub",
}

// IntrinsicPrefix prefixes every SIMD intrinsic name.
const IntrinsicPrefix = "simd_"

var opsByName = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op := OpUnknown + 1; op < numOps; op++ {
		m[IntrinsicPrefix+opNames[op]] = op
	}
	return m
}()

func (op Op) String() string {
	if op >= 0 && op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Arity returns the number of operands the intrinsic takes.
func (op Op) Arity() int {
	switch op {
	case OpCast, OpNeg, OpRound, OpFabs, OpFsqrt, OpCeil, OpFloor, OpTrunc,
		OpReduceAll, OpReduceAny, OpReduceAnd, OpReduceOr, OpReduceXor,
		OpReduceMin, OpReduceMax:
		return 1
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpExtract,
		OpAdd, OpSub, OpMul, OpDiv, OpRem, OpShl, OpShr, OpAnd, OpOr, OpXor,
		OpFmin, OpFmax,
		OpReduceAddOrdered, OpReduceAddUnordered, OpReduceMulOrdered, OpReduceMulUnordered:
		return 2
	case OpShuffle, OpInsert, OpFma, OpSelect:
		return 3
	}
	return -1
}

// Implemented reports whether the intrinsic has a lowering.
func (op Op) Implemented() bool {
	switch op {
	case OpUnknown, OpBitmask, OpGather, OpScatter, OpSaturatingAdd, OpSaturatingSub:
		return false
	}
	return op > OpUnknown && op < numOps
}

// Intrinsic is a parsed dispatch key.
type Intrinsic struct {
	Op Op

	// Name is the original name, kept for diagnostics.
	Name string

	// ShuffleLanes is the output lane count given by a simd_shuffleN name,
	// or 0 when it comes from the index array length.
	ShuffleLanes int
}

// ParseIntrinsic maps an intrinsic name to its Op. Names that are not SIMD
// intrinsics map to OpUnknown.
func ParseIntrinsic(name string) Intrinsic {
	if op, ok := opsByName[name]; ok {
		return Intrinsic{Op: op, Name: name}
	}
	if suffix, ok := strings.CutPrefix(name, IntrinsicPrefix+opNames[OpShuffle]); ok {
		n, err := strconv.Atoi(suffix)
		if err == nil && n > 0 && suffix[0] != '+' {
			return Intrinsic{Op: OpShuffle, Name: name, ShuffleLanes: n}
		}
	}
	return Intrinsic{Op: OpUnknown, Name: name}
}

func (in Intrinsic) String() string {
	return in.Name
}
