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
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/simdlower/ir"
	"github.com/ajroetker/simdlower/lower"
)

// Output is the final content of one operand after execution.
type Output struct {
	Name  string
	Type  string
	Lanes []string
}

// String formats the output as "name: type = [lane lane ...]".
func (o Output) String() string {
	return fmt.Sprintf("%s: %s = [%s]", o.Name, o.Type, strings.Join(o.Lanes, " "))
}

// Run executes a compiled function and returns every operand in declaration
// order. When the function traps, the outputs reflect memory at the trap
// and the error is an *ir.TrapError.
func Run(fr *FuncResult) ([]Output, error) {
	if fr.Err != nil {
		return nil, fmt.Errorf("function %s did not compile: %w", fr.Name, fr.Err)
	}
	mem := ir.NewMemory(fr.Func, fr.order)
	err := ir.Exec(fr.Func, mem, lower.Runtime())
	outs := lo.Map(fr.operands, func(op operand, _ int) Output {
		return readOperand(mem, op)
	})
	return outs, err
}

func readOperand(mem *ir.Memory, op operand) Output {
	out := Output{Name: op.spec.Name, Type: op.ty.String()}
	kind, n := laneShape(op.ty)
	if n == 0 {
		out.Lanes = []string{fmt.Sprintf("<%d bytes>", op.ty.Size())}
		return out
	}
	t := kind.IRType()
	for i := range n {
		bits := mem.Load(t, op.place.Slot(), op.place.Offset()+i*kind.Size())
		out.Lanes = append(out.Lanes, FormatLane(kind, bits))
	}
	return out
}
