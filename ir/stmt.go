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

package ir

import (
	"fmt"
	"strings"

	"stencilc/types"
)

// Stmt is any node in the statement tree. As with Expr, concrete types
// are always pointers so Stmt equality is node identity.
type Stmt interface {
	String() string
	stmtNode()
}

// LetStmt scopes a value binding over Body, the statement-level analogue
// of Let.
type LetStmt struct {
	Name  string
	Value Expr
	Body  Stmt
}

func (n *LetStmt) String() string {
	return fmt.Sprintf("let %s = %s;\n%s", n.Name, n.Value, n.Body)
}
func (*LetStmt) stmtNode() {}

// AssertStmt validates Cond at runtime, raising a cerr.RuntimeError with
// Message if it fails.
type AssertStmt struct {
	Cond    Expr
	Message string
}

func (n *AssertStmt) String() string { return fmt.Sprintf("assert(%s, %q)", n.Cond, n.Message) }
func (*AssertStmt) stmtNode()        {}

// ForType tags how a For loop is to be executed.
type ForType int

const (
	Serial ForType = iota
	Parallel
	Vectorized
	Unrolled
)

func (f ForType) String() string {
	switch f {
	case Serial:
		return "serial"
	case Parallel:
		return "parallel"
	case Vectorized:
		return "vectorized"
	case Unrolled:
		return "unrolled"
	default:
		return fmt.Sprintf("ForType(%d)", int(f))
	}
}

// Device tags where a For loop's iterations execute.
type Device int

const (
	Host Device = iota
	GPUBlock
	GPUThread
)

func (d Device) String() string {
	switch d {
	case Host:
		return "host"
	case GPUBlock:
		return "gpu_block"
	case GPUThread:
		return "gpu_thread"
	default:
		return fmt.Sprintf("Device(%d)", int(d))
	}
}

// For is a loop over [Min, Min+Extent) bound to Name within Body.
// Min and Extent must depend only on outer-loop variables and parameters
// once lowering completes (invariant I4).
type For struct {
	Name        string
	Min, Extent Expr
	ForType     ForType
	Device      Device
	Body        Stmt
}

func (n *For) String() string {
	tag := n.ForType.String()
	if n.Device != Host {
		tag = n.Device.String()
	}
	return fmt.Sprintf("for<%s> (%s from %s span %s) {\n%s\n}", tag, n.Name, n.Min, n.Extent, indent(n.Body.String()))
}
func (*For) stmtNode() {}

// Store writes Value to Buffer at Index. Produced from Provide after
// storage allocation.
type Store struct {
	Buffer string
	Index  Expr
	Value  Expr
}

func (n *Store) String() string { return fmt.Sprintf("%s[%s] = %s", n.Buffer, n.Index, n.Value) }
func (*Store) stmtNode()        {}

// Provide is the abstract pre-storage-allocation analogue of Store: it
// writes an output tuple (Values) for a pipeline function at symbolic
// pure-variable coordinates (Indices). Lowering step 6 turns each Provide
// into a Store once the function's Realize has become an Allocate.
type Provide struct {
	Name    string
	Values  []Expr
	Indices []Expr
}

func (n *Provide) String() string {
	idx := exprList(n.Indices)
	vals := exprList(n.Values)
	return fmt.Sprintf("provide %s(%s) = {%s}", n.Name, idx, vals)
}
func (*Provide) stmtNode() {}

// Allocate reserves storage named Name of element type Typ with the given
// per-dimension Extents, visible within Body. Produced from Realize by
// lowering step 6 (and possibly narrowed by storage folding, step 5).
type Allocate struct {
	Name    string
	Typ     types.Type
	Extents []Expr
	Body    Stmt
}

func (n *Allocate) String() string {
	return fmt.Sprintf("allocate %s[%s] : %s {\n%s\n}", n.Name, exprList(n.Extents), n.Typ, indent(n.Body.String()))
}
func (*Allocate) stmtNode() {}

// Free releases the allocation named Name.
type Free struct {
	Name string
}

func (n *Free) String() string { return fmt.Sprintf("free %s", n.Name) }
func (*Free) stmtNode()        {}

// Range is a half-open interval [Min, Min+Extent) used by Realize bounds
// and by ReductionVariable (funcs package).
type Range struct {
	Min, Extent Expr
}

// Realize is the abstract pre-allocation form of materializing a pipeline
// function: it wraps Body (a For nest ending in Provide) with the bounds
// required by its consumers, in argument order. Lowering step 6 turns each
// Realize into an Allocate + Block.
type Realize struct {
	Name   string
	Bounds []Range
	Body   Stmt
}

func (n *Realize) String() string {
	parts := make([]string, len(n.Bounds))
	for i, b := range n.Bounds {
		parts[i] = fmt.Sprintf("[%s, %s)", b.Min, b.Extent)
	}
	return fmt.Sprintf("realize %s(%s) {\n%s\n}", n.Name, strings.Join(parts, ", "), indent(n.Body.String()))
}
func (*Realize) stmtNode() {}

// Block sequences First then Rest. Rest is nil for the last statement in a
// sequence; use Blocks to build a chain from a slice.
type Block struct {
	First, Rest Stmt
}

func (n *Block) String() string {
	if n.Rest == nil {
		return n.First.String()
	}
	return fmt.Sprintf("%s\n%s", n.First, n.Rest)
}
func (*Block) stmtNode() {}

// Blocks sequences stmts into a right-leaning chain of Block nodes,
// skipping nil entries. Returns nil if stmts is empty, or the single
// statement directly if it has exactly one non-nil entry.
func Blocks(stmts ...Stmt) Stmt {
	filtered := stmts[:0:0]
	for _, s := range stmts {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &Block{First: filtered[0], Rest: Blocks(filtered[1:]...)}
}

// IfThenElse conditionally executes Then or Else (which may be nil).
type IfThenElse struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

func (n *IfThenElse) String() string {
	if n.Else == nil {
		return fmt.Sprintf("if (%s) {\n%s\n}", n.Cond, indent(n.Then.String()))
	}
	return fmt.Sprintf("if (%s) {\n%s\n} else {\n%s\n}", n.Cond, indent(n.Then.String()), indent(n.Else.String()))
}
func (*IfThenElse) stmtNode() {}

// Evaluate executes Expr for its side effects (or none), discarding any
// result. Used for bare Call expressions with no return value consumed.
type Evaluate struct {
	Expr Expr
}

func (n *Evaluate) String() string { return n.Expr.String() }
func (*Evaluate) stmtNode()        {}

func exprList(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
