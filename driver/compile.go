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

// Package driver compiles units of SIMD intrinsic calls with package lower
// and optionally executes the result.
package driver

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/ajroetker/simdlower/diag"
	"github.com/ajroetker/simdlower/internal/workerpool"
	"github.com/ajroetker/simdlower/ir"
	"github.com/ajroetker/simdlower/lower"
	"github.com/ajroetker/simdlower/target"
)

// Options configures Compile.
type Options struct {
	// Target overrides the unit's target when non-nil.
	Target *target.Target

	// Workers is the number of functions lowered concurrently. Zero means
	// GOMAXPROCS.
	Workers int

	// Logger receives progress messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Result is a compiled unit.
type Result struct {
	Name   string
	ID     string
	Target target.Target

	// Funcs are in the order the unit declares them. Functions that were
	// not compiled because another one failed are nil.
	Funcs []*FuncResult
}

// FuncResult is one compiled function.
type FuncResult struct {
	Name string
	Func *ir.Function

	// Diagnostics reported while lowering, in emission order.
	Diagnostics []diag.Diagnostic

	// Err is the fatal, internal or verifier error that stopped the
	// function, if any.
	Err error

	order    binary.ByteOrder
	operands []operand
}

type operand struct {
	spec  OperandSpec
	ty    lower.Type
	place lower.Place
}

// UnitError reports the function whose failure ended a compilation.
type UnitError struct {
	Unit     string
	Function string
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %s: function %s: %v", e.Unit, e.Function, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Diagnostics returns the diagnostics of all compiled functions.
func (r *Result) Diagnostics() []diag.Diagnostic {
	return lo.FlatMap(lo.Compact(r.Funcs), func(f *FuncResult, _ int) []diag.Diagnostic {
		return f.Diagnostics
	})
}

// HasErrors reports whether any diagnostic is an error or worse.
func (r *Result) HasErrors() bool {
	return lo.SomeBy(r.Diagnostics(), func(d diag.Diagnostic) bool {
		return d.Severity >= diag.Error
	})
}

// Func returns the named function, or nil.
func (r *Result) Func(name string) *FuncResult {
	f, _ := lo.Find(r.Funcs, func(f *FuncResult) bool { return f != nil && f.Name == name })
	return f
}

// Compile lowers every function of u. Functions are independent and are
// lowered concurrently, each with its own builder and diagnostic collector.
//
// The returned Result is non-nil whenever the target resolves, so callers
// can print diagnostics of a failed compilation. The error is a *UnitError
// when a function hit a fatal or internal error or failed verification.
func Compile(ctx context.Context, u *Unit, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var tgt target.Target
	if opts.Target != nil {
		tgt = *opts.Target
	} else {
		var err error
		if tgt, err = target.Lookup(u.Target); err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.Name, err)
		}
	}
	log = log.With("unit", u.Name, "id", u.ID)
	log.Debug("compiling unit", "target", tgt.String(), "functions", len(u.Functions))

	res := &Result{
		Name:   u.Name,
		ID:     u.ID,
		Target: tgt,
		Funcs:  make([]*FuncResult, len(u.Functions)),
	}
	pool := workerpool.New(min(opts.Workers, max(len(u.Functions), 1)))
	defer pool.Close()

	start := time.Now()
	err := pool.Run(ctx, len(u.Functions), func(ctx context.Context, i int) error {
		fr := compileFunction(ctx, u, &u.Functions[i], tgt)
		res.Funcs[i] = fr
		if fr.Err != nil {
			return &UnitError{Unit: u.Name, Function: fr.Name, Err: fr.Err}
		}
		log.Debug("lowered function", "function", fr.Name,
			"insts", fr.Func.NumInsts(), "slots", len(fr.Func.Slots), "diagnostics", len(fr.Diagnostics))
		return nil
	})
	if err != nil {
		log.Debug("compilation failed", "err", err)
		return res, err
	}
	log.Info("compiled unit",
		"functions", len(res.Funcs),
		"insts", lo.SumBy(res.Funcs, func(f *FuncResult) int { return f.Func.NumInsts() }),
		"elapsed", time.Since(start))
	return res, nil
}

// compileFunction lowers the calls of f in order. Lowering stops at the
// first fatal or internal error, or when ctx is cancelled.
func compileFunction(ctx context.Context, u *Unit, f *Function, tgt target.Target) *FuncResult {
	fn := ir.NewFunction(f.Name)
	b := ir.NewBuilder(fn)
	sink := &diag.Collector{}
	cx := lower.NewFunctionCx(b, sink, tgt.Options()...)
	fr := &FuncResult{Name: f.Name, Func: fn, order: tgt.ByteOrder}
	defer func() { fr.Diagnostics = sink.Diagnostics() }()

	consts := make(map[string][]byte)
	places := make(map[string]lower.Place, len(f.Operands))
	for _, spec := range f.Operands {
		ty, err := lower.ParseType(spec.Type)
		if err != nil {
			fr.Err = fmt.Errorf("operand %s: %w", spec.Name, err)
			return fr
		}
		p := lower.NewPlace(b, ty, spec.Name)
		raw, err := materialize(b, p, spec, tgt.ByteOrder)
		if err != nil {
			fr.Err = fmt.Errorf("operand %s: %w", spec.Name, err)
			return fr
		}
		if spec.Const {
			consts[spec.Name] = raw
		}
		places[spec.Name] = p
		fr.operands = append(fr.operands, operand{spec: spec, ty: ty, place: p})
	}

	for _, c := range f.Calls {
		if err := ctx.Err(); err != nil {
			fr.Err = err
			return fr
		}
		call := &lower.Call{
			Name: c.Intrinsic,
			Ret:  places[c.Ret],
			Span: diag.Span{File: u.Path, Line: c.Line, Col: c.Col},
			Args: lo.Map(c.Args, func(name string, _ int) lower.Operand {
				return lower.Operand{Value: places[name].Value(), Const: consts[name]}
			}),
		}
		if err := lower.Lower(cx, call); err != nil {
			fr.Err = err
			return fr
		}
	}

	b.Finish()
	if err := ir.Verify(fn); err != nil {
		fr.Err = fmt.Errorf("verifying %s: %w", f.Name, err)
	}
	return fr
}

// materialize stores the initial lanes of an operand and returns their
// bytes in target order.
func materialize(b *ir.Builder, p lower.Place, spec OperandSpec, order binary.ByteOrder) ([]byte, error) {
	lits := spec.Lanes
	if spec.Value != nil {
		lits = []Literal{*spec.Value}
	}
	if len(lits) == 0 {
		return nil, nil
	}
	kind, _ := laneShape(p.Type())
	raw := make([]byte, 0, p.Type().Size())
	for i, lit := range lits {
		bits, err := EncodeLane(kind, lit)
		if err != nil {
			return nil, err
		}
		dst := p
		if _, scalar := p.Type().(lower.LaneKind); !scalar {
			dst = p.Lane(i)
		}
		dst.WriteScalar(b, b.Const(kind.IRType(), bits))
		raw = appendUint(raw, order, kind.Size(), bits)
	}
	return raw, nil
}

func appendUint(dst []byte, order binary.ByteOrder, size int, x uint64) []byte {
	var buf [8]byte
	switch size {
	case 1:
		buf[0] = byte(x)
	case 2:
		order.PutUint16(buf[:], uint16(x))
	case 4:
		order.PutUint32(buf[:], uint32(x))
	default:
		order.PutUint64(buf[:], x)
		size = 8
	}
	return append(dst, buf[:size]...)
}
