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

// Package cerr defines the compiler's two error tiers: compile-time
// errors raised during IR construction, scheduling, or lowering, and
// runtime errors raised from the emitted pipeline or the runtime. Both
// tiers wrap a Kind so callers can discriminate with errors.Is/As without
// string matching.
package cerr

import "fmt"

// Kind identifies a compile-time error category.
type Kind int

const (
	IRTypeError Kind = iota
	UnboundVariable
	ScheduleInconsistency
	ArityMismatch
	BoundsInferenceFailure
	UnsupportedByTarget
)

func (k Kind) String() string {
	switch k {
	case IRTypeError:
		return "IRTypeError"
	case UnboundVariable:
		return "UnboundVariable"
	case ScheduleInconsistency:
		return "ScheduleInconsistency"
	case ArityMismatch:
		return "ArityMismatch"
	case BoundsInferenceFailure:
		return "BoundsInferenceFailure"
	case UnsupportedByTarget:
		return "UnsupportedByTarget"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// CompileError is a synchronous, non-recoverable error raised while
// building or lowering a pipeline. Fragment is a String()-rendered IR
// snippet, kept as text so CompileError never needs to import ir (which
// itself constructs CompileErrors).
type CompileError struct {
	Kind     Kind
	Message  string
	Fragment string
	Wrapped  error
}

func (e *CompileError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Message, e.Fragment)
}

func (e *CompileError) Unwrap() error { return e.Wrapped }

// Is reports whether target is a *CompileError with the same Kind,
// allowing errors.Is(err, cerr.New(cerr.ArityMismatch, "", "")) style checks
// without comparing messages.
func (e *CompileError) Is(target error) bool {
	t, ok := target.(*CompileError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs a CompileError. fragment may be "" when no IR snippet is
// available (e.g. a schedule-only error before any Stmt exists).
func New(kind Kind, message, fragment string) *CompileError {
	return &CompileError{Kind: kind, Message: message, Fragment: fragment}
}

// Newf is New with fmt.Sprintf-style message formatting.
func Newf(kind Kind, fragment, format string, args ...any) *CompileError {
	return New(kind, fmt.Sprintf(format, args...), fragment)
}

// Wrap attaches an underlying error to a new CompileError of kind, so
// errors.Unwrap reaches the original cause.
func Wrap(kind Kind, fragment string, err error) *CompileError {
	return &CompileError{Kind: kind, Message: err.Error(), Fragment: fragment, Wrapped: err}
}

// RuntimeKind identifies a runtime error category.
type RuntimeKind int

const (
	BufferPrecondition RuntimeKind = iota
	AllocationFailure
	DeviceError
	AssertionFailure
)

func (k RuntimeKind) String() string {
	switch k {
	case BufferPrecondition:
		return "BufferPrecondition"
	case AllocationFailure:
		return "AllocationFailure"
	case DeviceError:
		return "DeviceError"
	case AssertionFailure:
		return "AssertionFailure"
	default:
		return fmt.Sprintf("RuntimeKind(%d)", int(k))
	}
}

// RuntimeError is the error flowing through the installable error hook
// (see SetHandler). Code carries a device-specific status code for
// RuntimeKind == DeviceError, and is 0 otherwise.
type RuntimeError struct {
	Kind    RuntimeKind
	Message string
	Code    int
}

func (e *RuntimeError) Error() string {
	if e.Kind == DeviceError {
		return fmt.Sprintf("%s(%d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewRuntime constructs a RuntimeError with no device code.
func NewRuntime(kind RuntimeKind, message string) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: message}
}

// NewDeviceError constructs a RuntimeError carrying a device status code.
func NewDeviceError(code int, message string) *RuntimeError {
	return &RuntimeError{Kind: DeviceError, Message: message, Code: code}
}

// Handler is installed via SetHandler and invoked for every RuntimeError
// that reaches the top of the runtime. The default handler panics, which
// for a process without a recover() at the top terminates it, matching
// the documented terminates-the-process-by-default behavior.
type Handler func(*RuntimeError)

var currentHandler Handler = defaultHandler

func defaultHandler(e *RuntimeError) {
	panic(e)
}

// SetHandler installs a custom runtime error handler, overriding the
// default terminate-on-error behavior. Passing nil restores the default.
func SetHandler(h Handler) {
	if h == nil {
		currentHandler = defaultHandler
		return
	}
	currentHandler = h
}

// Raise routes a RuntimeError through the installed Handler. Runtime code
// calls this instead of returning the error directly whenever it needs to
// match the installable-hook dispatch protocol; package APIs that return
// ordinary Go errors still do so in addition, so callers that prefer
// explicit error handling over the global hook are not forced through it.
func Raise(e *RuntimeError) {
	currentHandler(e)
}
