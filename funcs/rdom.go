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

// Package funcs implements named pure functions over integer tuples, their
// reduction (update) definitions, and the rectangular ReductionDomain each
// update is scoped by.
package funcs

import (
	"fmt"
	"sync/atomic"

	"stencilc/ir"
	"stencilc/types"
)

// anonDomainCount generates stable names for domains constructed without
// an explicit name.
var anonDomainCount atomic.Int64

// dimLetter names the first four reduction dimensions x/y/z/w;
// dimensions beyond that fall back to a numeric name.
var dimLetter = [...]string{"x", "y", "z", "w"}

// mangle suffixes a reduction variable's name with an unambiguous marker so
// it cannot be captured by a pure variable of the same name sharing the
// user's global name space.
func mangle(domainName string, dim int) string {
	letter := fmt.Sprintf("%d", dim)
	if dim < len(dimLetter) {
		letter = dimLetter[dim]
	}
	return fmt.Sprintf("%s.%s$r", domainName, letter)
}

// ReductionVariable is one dimension of a ReductionDomain: a half-open
// interval [Min, Min+Extent) bound to a mangled name.
type ReductionVariable struct {
	Name        string
	Min, Extent ir.Expr
}

// ReductionDomain is an ordered, rectangular iteration space traversed in
// lexicographic order for each update definition it scopes.
type ReductionDomain struct {
	domainName string
	Vars       []ReductionVariable
}

// NewReductionDomain builds a domain named domainName (used only to derive
// mangled variable names; pass "" to have one generated) from a flat list
// of (min, extent) expression pairs, one per dimension, in order.
func NewReductionDomain(domainName string, bounds ...ir.Expr) *ReductionDomain {
	if domainName == "" {
		domainName = fmt.Sprintf("r%d", anonDomainCount.Add(1))
	}
	if len(bounds)%2 != 0 {
		panic("funcs: NewReductionDomain requires (min, extent) pairs")
	}
	dom := &ReductionDomain{domainName: domainName}
	for i := 0; i*2 < len(bounds); i++ {
		dom.Vars = append(dom.Vars, ReductionVariable{
			Name:   mangle(domainName, i),
			Min:    bounds[i*2],
			Extent: bounds[i*2+1],
		})
	}
	return dom
}

// RDom is sugar for the common single-dimension case:
// RDom(0, n, "r") building one reduction variable over [0, n).
func RDom(min, extent ir.Expr, name string) *ReductionDomain {
	return NewReductionDomain(name, min, extent)
}

// Var returns the i'th reduction variable's Var expression, of type
// types.Int32 so it can be used anywhere an ordinary Expr is expected.
func (d *ReductionDomain) Var(i int) ir.Expr {
	return ir.NewVar(d.Vars[i].Name, types.Int32)
}

// Len returns the number of dimensions in the domain.
func (d *ReductionDomain) Len() int { return len(d.Vars) }
