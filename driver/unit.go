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
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/simdlower/lower"
)

// Unit is a compilation unit: a set of functions, each a straight-line
// sequence of intrinsic calls over named stack operands.
type Unit struct {
	// Name labels the unit in logs and diagnostics.
	Name string `yaml:"name"`

	// ID identifies one compilation of the unit. A random UUID is assigned
	// when it is empty.
	ID string `yaml:"id,omitempty"`

	// Target is a target name accepted by target.Lookup. Defaults to "host".
	Target string `yaml:"target,omitempty"`

	Functions []Function `yaml:"functions"`

	// Path is the file the unit was loaded from, used in spans.
	Path string `yaml:"-"`
}

// Function declares its operands and the calls made on them.
type Function struct {
	Name     string        `yaml:"name"`
	Operands []OperandSpec `yaml:"operands"`
	Calls    []CallSpec    `yaml:"calls"`
}

// OperandSpec declares one named stack location.
type OperandSpec struct {
	Name string `yaml:"name"`

	// Type is parsed with lower.ParseType.
	Type string `yaml:"type"`

	// Lanes initializes a vector or array operand, one literal per lane.
	Lanes []Literal `yaml:"lanes,omitempty"`

	// Value initializes a scalar operand.
	Value *Literal `yaml:"value,omitempty"`

	// Const marks the initial value as known at compile time, so it can be
	// used as a shuffle or lane index.
	Const bool `yaml:"const,omitempty"`
}

// CallSpec is one intrinsic call.
type CallSpec struct {
	Intrinsic string   `yaml:"intrinsic"`
	Args      []string `yaml:"args"`
	Ret       string   `yaml:"ret"`
	Line      int      `yaml:"line,omitempty"`
	Col       int      `yaml:"col,omitempty"`
}

// Literal is a scalar literal kept as written, so 64-bit integers survive
// decoding and float lanes can carry NaN payloads as 0x bit patterns. It is
// interpreted against a lane kind.
type Literal string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Literal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: lane literal must be a scalar", node.Line)
	}
	*l = Literal(node.Value)
	return nil
}

// LoadUnit reads and parses a unit file.
func LoadUnit(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading unit %s: %w", path, err)
	}
	return ParseUnit(data, path)
}

// ParseUnit parses unit YAML. The path argument is used for error messages
// and diagnostic spans.
func ParseUnit(data []byte, path string) (*Unit, error) {
	var u Unit
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	u.Path = path
	if err := u.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	u.setDefaults()
	return &u, nil
}

func (u *Unit) validate() error {
	if u.ID != "" {
		if _, err := uuid.Parse(u.ID); err != nil {
			return fmt.Errorf("id %q: %w", u.ID, err)
		}
	}
	if dups := lo.FindDuplicatesBy(u.Functions, func(f Function) string { return f.Name }); len(dups) > 0 {
		return fmt.Errorf("function %q declared twice", dups[0].Name)
	}
	for i, f := range u.Functions {
		if f.Name == "" {
			return fmt.Errorf("functions[%d]: name is required", i)
		}
		if err := f.validate(); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	return nil
}

func (f *Function) validate() error {
	if dups := lo.FindDuplicatesBy(f.Operands, func(o OperandSpec) string { return o.Name }); len(dups) > 0 {
		return fmt.Errorf("operand %q declared twice", dups[0].Name)
	}
	declared := make(map[string]lower.Type, len(f.Operands))
	for _, op := range f.Operands {
		if op.Name == "" {
			return fmt.Errorf("operand without a name")
		}
		ty, err := lower.ParseType(op.Type)
		if err != nil {
			return fmt.Errorf("operand %s: %w", op.Name, err)
		}
		if err := op.checkInit(ty); err != nil {
			return fmt.Errorf("operand %s: %w", op.Name, err)
		}
		declared[op.Name] = ty
	}
	for i, c := range f.Calls {
		if c.Intrinsic == "" {
			return fmt.Errorf("calls[%d]: intrinsic is required", i)
		}
		for _, a := range slices.Concat(c.Args, []string{c.Ret}) {
			if _, ok := declared[a]; !ok {
				return fmt.Errorf("calls[%d] (%s): undeclared operand %q", i, c.Intrinsic, a)
			}
		}
	}
	return nil
}

// checkInit verifies that the initializer fits the operand's type.
func (op *OperandSpec) checkInit(ty lower.Type) error {
	switch t := ty.(type) {
	case lower.VectorType, lower.ArrayType:
		if op.Value != nil {
			return fmt.Errorf("%s needs lanes, not a value", ty)
		}
		if len(op.Lanes) == 0 {
			break
		}
		kind, n := laneShape(t)
		if len(op.Lanes) != n {
			return fmt.Errorf("%s has %d lanes, %d given", ty, n, len(op.Lanes))
		}
		for i, l := range op.Lanes {
			if _, err := EncodeLane(kind, l); err != nil {
				return fmt.Errorf("lane %d: %w", i, err)
			}
		}
	case lower.LaneKind:
		if len(op.Lanes) > 0 {
			return fmt.Errorf("%s needs a value, not lanes", ty)
		}
		if op.Value != nil {
			if _, err := EncodeLane(t, *op.Value); err != nil {
				return err
			}
		}
	default:
		if len(op.Lanes) > 0 || op.Value != nil {
			return fmt.Errorf("%s cannot be initialized", ty)
		}
	}
	if op.Const && len(op.Lanes) == 0 && op.Value == nil {
		return fmt.Errorf("const operand needs an initial value")
	}
	return nil
}

func (u *Unit) setDefaults() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Target == "" {
		u.Target = "host"
	}
	if u.Name == "" {
		u.Name = "unit"
	}
}

// laneShape returns the lane kind and count of a vector or array type.
func laneShape(ty lower.Type) (lower.LaneKind, int) {
	switch t := ty.(type) {
	case lower.VectorType:
		return t.Elem, t.Lanes
	case lower.ArrayType:
		return t.Elem, t.Len
	case lower.LaneKind:
		return t, 1
	}
	return lower.LaneKind{}, 0
}
