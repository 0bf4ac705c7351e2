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
	"errors"
	"fmt"

	"github.com/ajroetker/simdlower/diag"
)

// FatalError ends compilation of the whole unit. It has already been
// reported to the diagnostic sink when it is returned.
type FatalError struct {
	Span diag.Span
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// InternalError reports a broken contract between the front end and the
// lowering: a combination well-typed input never produces. It is not
// reported to the user-facing sink.
type InternalError struct {
	Intrinsic string
	Kind      string
	Msg       string
}

func (e *InternalError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("internal error lowering %s: %s", e.Intrinsic, e.Msg)
	}
	return fmt.Sprintf("internal error lowering %s (lane kind %s): %s", e.Intrinsic, e.Kind, e.Msg)
}

// IsFatal reports whether err is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsInternal reports whether err is an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

func (cx *FunctionCx) fatalf(span diag.Span, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	diag.Fatalf(cx.Sink, span, "%s", msg)
	return &FatalError{Span: span, Msg: msg}
}

func internalf(name string, kind fmt.Stringer, format string, args ...any) error {
	e := &InternalError{Intrinsic: name, Msg: fmt.Sprintf(format, args...)}
	if kind != nil {
		e.Kind = kind.String()
	}
	return e
}
