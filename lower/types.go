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

	"github.com/ajroetker/simdlower/ir"
)

// Type is the source-level type of an operand or destination.
type Type interface {
	// Size returns the size of the type in bytes.
	Size() int
	String() string
}

// LaneClass selects the family of scalar operators for a lane.
type LaneClass uint8

const (
	SignedInt LaneClass = iota
	UnsignedInt
	Float

	// Bool only appears as the scalar result of reduce_all/reduce_any.
	Bool
)

// LaneKind is the scalar kind of one lane, also used for scalar operands.
type LaneKind struct {
	Class LaneClass
	Width int
}

// Constructors for lane kinds.
func Signed(width int) LaneKind    { return LaneKind{Class: SignedInt, Width: width} }
func Unsigned(width int) LaneKind  { return LaneKind{Class: UnsignedInt, Width: width} }
func FloatKind(width int) LaneKind { return LaneKind{Class: Float, Width: width} }

// BoolKind is the kind of boolean scalar results.
var BoolKind = LaneKind{Class: Bool, Width: 8}

// Size implements Type.
func (k LaneKind) Size() int { return k.Width / 8 }

func (k LaneKind) String() string {
	switch k.Class {
	case SignedInt:
		return "i" + strconv.Itoa(k.Width)
	case UnsignedInt:
		return "u" + strconv.Itoa(k.Width)
	case Float:
		return "f" + strconv.Itoa(k.Width)
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("LaneKind(%d, %d)", k.Class, k.Width)
	}
}

// IsInt reports whether the kind is a signed or unsigned integer.
func (k LaneKind) IsInt() bool {
	return k.Class == SignedInt || k.Class == UnsignedInt
}

// IsFloat reports whether the kind is a float.
func (k LaneKind) IsFloat() bool {
	return k.Class == Float
}

// IRType returns the instruction-level type holding one lane.
func (k LaneKind) IRType() ir.Type {
	if k.Class == Float {
		if k.Width == 32 {
			return ir.F32
		}
		return ir.F64
	}
	t, _ := ir.IntType(k.Width)
	return t
}

func (k LaneKind) valid() bool {
	switch k.Class {
	case SignedInt, UnsignedInt:
		return k.Width == 8 || k.Width == 16 || k.Width == 32 || k.Width == 64
	case Float:
		return k.Width == 32 || k.Width == 64
	case Bool:
		return k.Width == 8
	}
	return false
}

// VectorType is a fixed number of lanes of one kind.
type VectorType struct {
	Lanes int
	Elem  LaneKind
}

// Size implements Type.
func (v VectorType) Size() int { return v.Lanes * v.Elem.Size() }

func (v VectorType) String() string {
	return fmt.Sprintf("%sx%d", v.Elem, v.Lanes)
}

// ArrayType is a fixed-length array, used for shuffle index lists.
type ArrayType struct {
	Elem LaneKind
	Len  int
}

// Size implements Type.
func (a ArrayType) Size() int { return a.Len * a.Elem.Size() }

func (a ArrayType) String() string {
	return fmt.Sprintf("[%s; %d]", a.Elem, a.Len)
}

// OpaqueType stands for any type that is neither a scalar, a vector nor an
// array the lowering understands.
type OpaqueType struct {
	Name  string
	Bytes int
}

// Size implements Type.
func (o OpaqueType) Size() int { return o.Bytes }

func (o OpaqueType) String() string { return o.Name }

// IsSIMD reports whether t is a vector type.
func IsSIMD(t Type) bool {
	_, ok := t.(VectorType)
	return ok
}

// ParseType parses a type name:
//
//	i8 i16 i32 i64 u8 u16 u32 u64 f32 f64 bool   scalars
//	i32x4 f64x2 u8x16                            vectors
//	[u32; 4]                                     arrays
//
// Any other identifier becomes an 8-byte OpaqueType.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}
	if inner, ok := strings.CutPrefix(s, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return nil, fmt.Errorf("malformed array type %q", s)
		}
		elem, length, ok := strings.Cut(inner, ";")
		if !ok {
			return nil, fmt.Errorf("malformed array type %q", s)
		}
		kind, err := parseLaneKind(strings.TrimSpace(elem))
		if err != nil {
			return nil, fmt.Errorf("array type %q: %w", s, err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(length))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("array type %q: bad length", s)
		}
		return ArrayType{Elem: kind, Len: n}, nil
	}
	if elem, lanes, ok := strings.Cut(s, "x"); ok && isLaneKindName(elem) {
		kind, err := parseLaneKind(elem)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(lanes)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("vector type %q: lane count must be a positive integer", s)
		}
		if kind.Class == Bool {
			return nil, fmt.Errorf("vector type %q: bool lanes are not supported", s)
		}
		return VectorType{Lanes: n, Elem: kind}, nil
	}
	if isLaneKindName(s) {
		return parseLaneKind(s)
	}
	return OpaqueType{Name: s, Bytes: 8}, nil
}

func isLaneKindName(s string) bool {
	if s == "bool" {
		return true
	}
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case 'i', 'u', 'f':
		_, err := strconv.Atoi(s[1:])
		return err == nil
	}
	return false
}

func parseLaneKind(s string) (LaneKind, error) {
	if s == "bool" {
		return BoolKind, nil
	}
	if !isLaneKindName(s) {
		return LaneKind{}, fmt.Errorf("unknown lane kind %q", s)
	}
	width, _ := strconv.Atoi(s[1:])
	var k LaneKind
	switch s[0] {
	case 'i':
		k = Signed(width)
	case 'u':
		k = Unsigned(width)
	case 'f':
		k = FloatKind(width)
	}
	if !k.valid() {
		return LaneKind{}, fmt.Errorf("unsupported lane kind %q", s)
	}
	return k, nil
}
