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

package driver

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ajroetker/simdlower/lower"
)

// EncodeLane returns the bit pattern of a literal as a lane of kind.
// Integers accept any base strconv understands; signed lanes also accept
// "true" (all ones) and "false" so masks can be written naturally. Floats
// accept "nan", "inf" and "-inf", and a 0x literal without a 'p' exponent is
// taken as the raw bit pattern so NaN payloads can be written.
func EncodeLane(kind lower.LaneKind, lit Literal) (uint64, error) {
	s := strings.TrimSpace(string(lit))
	switch kind.Class {
	case lower.SignedInt:
		switch s {
		case "true":
			return mask(kind.Width), nil
		case "false":
			return 0, nil
		}
		x, err := strconv.ParseInt(s, 0, kind.Width)
		if err != nil {
			return 0, fmt.Errorf("%s literal %q: %w", kind, s, err)
		}
		return uint64(x) & mask(kind.Width), nil
	case lower.UnsignedInt:
		x, err := strconv.ParseUint(s, 0, kind.Width)
		if err != nil {
			return 0, fmt.Errorf("%s literal %q: %w", kind, s, err)
		}
		return x, nil
	case lower.Float:
		if hex, ok := floatBits(s); ok {
			x, err := strconv.ParseUint(hex, 16, kind.Width)
			if err != nil {
				return 0, fmt.Errorf("%s literal %q: %w", kind, s, err)
			}
			return x, nil
		}
		x, err := strconv.ParseFloat(s, kind.Width)
		if err != nil {
			return 0, fmt.Errorf("%s literal %q: %w", kind, s, err)
		}
		if kind.Width == 32 {
			return uint64(math.Float32bits(float32(x))), nil
		}
		return math.Float64bits(x), nil
	case lower.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return 0, fmt.Errorf("bool literal %q: %w", s, err)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot encode a %s literal", kind)
}

// floatBits reports whether s is a bit-pattern literal such as 0x7fc00001
// rather than a hexadecimal float such as 0x1p-2.
func floatBits(s string) (string, bool) {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return "", false
	}
	if strings.ContainsAny(s, "pP") {
		return "", false
	}
	return s[2:], true
}

// FormatLane renders a lane bit pattern the way EncodeLane reads it.
func FormatLane(kind lower.LaneKind, bits uint64) string {
	bits &= mask(kind.Width)
	switch kind.Class {
	case lower.SignedInt:
		shift := 64 - kind.Width
		return strconv.FormatInt(int64(bits<<shift)>>shift, 10)
	case lower.UnsignedInt:
		return strconv.FormatUint(bits, 10)
	case lower.Float:
		if kind.Width == 32 {
			return strconv.FormatFloat(float64(math.Float32frombits(uint32(bits))), 'g', -1, 32)
		}
		return strconv.FormatFloat(math.Float64frombits(bits), 'g', -1, 64)
	case lower.Bool:
		return strconv.FormatBool(bits != 0)
	}
	return "0x" + strconv.FormatUint(bits, 16)
}

func mask(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return 1<<width - 1
}
