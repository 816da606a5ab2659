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

package funcs

import (
	"fmt"

	"stencilc/cerr"
	"stencilc/ir"
	"stencilc/types"
)

// Update is one reduction stage of a Func: a ReductionDomain scoping the
// right-hand side Values, written at the coordinates given by Args.
type Update struct {
	Domain *ReductionDomain
	Args   []ir.Expr
	Values []ir.Expr
}

// Func is a named pure function over an ordered tuple of integer pure
// variables. Its pure Definition is set exactly once by
// Define; subsequent Update calls append reduction stages whose right-hand
// side may reference the function's own current value.
type Func struct {
	Name       string
	PureVars   []string
	Definition []ir.Expr // one expr per output value
	Updates    []*Update

	defined bool
}

// New creates an empty, undefined Func named name.
func New(name string) *Func {
	return &Func{Name: name}
}

// OutputArity returns the number of output values this Func produces, or 0
// if it has not yet been defined.
func (f *Func) OutputArity() int { return len(f.Definition) }

// Defined reports whether Define has been called.
func (f *Func) Defined() bool { return f.defined }

// Define sets f's pure definition: the ordered pure variable names (the
// domain f is defined over) and one expression per output value. Output
// arity is fixed by this call; calling Define twice is an error, as is
// defining a Func with zero output expressions.
func (f *Func) Define(args []string, values ...ir.Expr) error {
	if f.defined {
		return cerr.Newf(cerr.ArityMismatch, f.Name, "Func %q already has a pure definition", f.Name)
	}
	if len(values) == 0 {
		return cerr.Newf(cerr.ArityMismatch, f.Name, "Func %q: pure definition needs at least one output value", f.Name)
	}
	f.PureVars = append([]string(nil), args...)
	f.Definition = append([]ir.Expr(nil), values...)
	f.defined = true
	return nil
}

// Update appends a reduction stage scoped by dom: coordinates args, and one
// right-hand-side expression per output value. Output arity and, lane-
// for-lane, output type must match the pure definition exactly (invariant
// I3); a mismatch returns *cerr.CompileError{Kind: ArityMismatch}.
func (f *Func) Update(dom *ReductionDomain, args []ir.Expr, values ...ir.Expr) error {
	if !f.defined {
		return cerr.Newf(cerr.ArityMismatch, f.Name, "Func %q: update before pure definition", f.Name)
	}
	if len(values) != len(f.Definition) {
		return cerr.Newf(cerr.ArityMismatch, f.Name,
			"Func %q: update has %d output values, pure definition has %d", f.Name, len(values), len(f.Definition))
	}
	for i, v := range values {
		if !v.Type().Equal(f.Definition[i].Type()) {
			return cerr.Newf(cerr.ArityMismatch, f.Name,
				"Func %q: update output %d has type %s, pure definition has %s", f.Name, i, v.Type(), f.Definition[i].Type())
		}
	}
	f.Updates = append(f.Updates, &Update{Domain: dom, Args: append([]ir.Expr(nil), args...), Values: append([]ir.Expr(nil), values...)})
	return nil
}

// OutputType returns the type of output value i of the pure definition.
func (f *Func) OutputType(i int) types.Type { return f.Definition[i].Type() }

// Call builds a Call expression referencing output valueIndex of f at the
// given coordinate arguments, for use in another Func's definition.
func (f *Func) Call(args []ir.Expr, valueIndex int) (ir.Expr, error) {
	if !f.defined {
		return nil, cerr.Newf(cerr.ArityMismatch, f.Name, "Func %q: called before it is defined", f.Name)
	}
	if valueIndex < 0 || valueIndex >= len(f.Definition) {
		return nil, cerr.Newf(cerr.ArityMismatch, f.Name, "Func %q: value index %d out of range [0,%d)", f.Name, valueIndex, len(f.Definition))
	}
	if len(args) != len(f.PureVars) {
		return nil, cerr.Newf(cerr.ArityMismatch, f.Name, "Func %q: called with %d args, expected %d", f.Name, len(args), len(f.PureVars))
	}
	return ir.NewCall(f.Name, args, ir.PureFunc, f.OutputType(valueIndex), ir.WithFuncRef(f), ir.WithValueIndex(valueIndex)), nil
}

// String renders a debug summary of f, used in compile-error fragments.
func (f *Func) String() string {
	return fmt.Sprintf("Func(%s, vars=%v, arity=%d, updates=%d)", f.Name, f.PureVars, len(f.Definition), len(f.Updates))
}
