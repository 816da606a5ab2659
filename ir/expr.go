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

// Package ir implements the expression and statement trees: immutable,
// structurally-shareable nodes, each carrying a types.Type, built through
// canonicalizing constructors and walked with the dual visit/mutate
// traversal.
//
// Nodes are always held behind the Expr or Stmt interface and always
// constructed as pointers, so two Expr values compare == exactly when they
// are the same node — the identity Mutate relies on to preserve
// structural sharing.
package ir

import (
	"fmt"
	"strings"

	"stencilc/types"
)

// Expr is any node in the expression tree. Every concrete type in this
// package implementing Expr is a pointer type, so interface equality is
// node identity.
type Expr interface {
	// Type returns this node's result type.
	Type() types.Type
	// String renders a debug form, used in diagnostics and as the
	// "IR fragment" attached to compile errors.
	String() string
	exprNode()
}

// ---- Immediates ----

type IntImm struct {
	Val int64
	Typ types.Type
}

func (n *IntImm) Type() types.Type { return n.Typ }
func (n *IntImm) String() string   { return fmt.Sprintf("%d", n.Val) }
func (*IntImm) exprNode()          {}

type UIntImm struct {
	Val uint64
	Typ types.Type
}

func (n *UIntImm) Type() types.Type { return n.Typ }
func (n *UIntImm) String() string   { return fmt.Sprintf("%du", n.Val) }
func (*UIntImm) exprNode()          {}

type FloatImm struct {
	Val float64
	Typ types.Type
}

func (n *FloatImm) Type() types.Type { return n.Typ }
func (n *FloatImm) String() string   { return fmt.Sprintf("%g%s", n.Val, n.Typ) }
func (*FloatImm) exprNode()          {}

type StringImm struct {
	Val string
}

func (n *StringImm) Type() types.Type { return types.HandleT }
func (n *StringImm) String() string   { return fmt.Sprintf("%q", n.Val) }
func (*StringImm) exprNode()          {}

// ---- Cast ----

type Cast struct {
	Typ   types.Type
	Value Expr
}

func (n *Cast) Type() types.Type { return n.Typ }
func (n *Cast) String() string   { return fmt.Sprintf("cast<%s>(%s)", n.Typ, n.Value) }
func (*Cast) exprNode()          {}

// ---- Var ----

// Var refers to a loop variable, parameter, or let-binding. Every Var must
// be resolvable to an enclosing binding by the time lowering completes.
type Var struct {
	Name string
	Typ  types.Type
}

func (n *Var) Type() types.Type { return n.Typ }
func (n *Var) String() string   { return n.Name }
func (*Var) exprNode()          {}

// ---- Binary/Unary operators ----

// Op is the operator tag shared by BinaryExpr; the Go type (BinaryExpr vs.
// Not vs. Select, ...) is the outer tag, Op the inner one. This Kind+Op
// duality keeps node dispatch a type switch while still letting callers
// distinguish Add from Sub without a type per operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpAnd
	OpOr
	OpMin
	OpMax
)

func (o Op) String() string {
	names := [...]string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "&&", "||", "min", "max"}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// isComparison reports whether o produces a bool-typed (UInt1) result.
func (o Op) isComparison() bool {
	switch o {
	case OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE:
		return true
	default:
		return false
	}
}

// isLogical reports whether o operates on and produces bool-typed operands.
func (o Op) isLogical() bool {
	return o == OpAnd || o == OpOr
}

// BinaryExpr is Add/Sub/Mul/Div/Mod, EQ/NE/LT/LE/GT/GE, And/Or, and Min/Max
// — every binary operator except Select, which is ternary.
type BinaryExpr struct {
	Op   Op
	X, Y Expr
	Typ  types.Type
}

func (n *BinaryExpr) Type() types.Type { return n.Typ }
func (n *BinaryExpr) String() string {
	if n.Op == OpMin || n.Op == OpMax {
		return fmt.Sprintf("%s(%s, %s)", n.Op, n.X, n.Y)
	}
	return fmt.Sprintf("(%s %s %s)", n.X, n.Op, n.Y)
}
func (*BinaryExpr) exprNode() {}

// Not is the sole logical unary operator.
type Not struct {
	X   Expr
	Typ types.Type
}

func (n *Not) Type() types.Type { return n.Typ }
func (n *Not) String() string   { return fmt.Sprintf("!%s", n.X) }
func (*Not) exprNode()          {}

// Select is the IfThenElse-on-values expression: Select(cond, t, f).
type Select struct {
	Cond Expr
	T, F Expr
	Typ  types.Type
}

func (n *Select) Type() types.Type { return n.Typ }
func (n *Select) String() string   { return fmt.Sprintf("select(%s, %s, %s)", n.Cond, n.T, n.F) }
func (*Select) exprNode()          {}

// ---- Memory and vector primitives ----

// Load reads a single lane-group from a named buffer at index.
type Load struct {
	Buffer string
	Index  Expr
	Typ    types.Type
}

func (n *Load) Type() types.Type { return n.Typ }
func (n *Load) String() string   { return fmt.Sprintf("%s[%s]", n.Buffer, n.Index) }
func (*Load) exprNode()          {}

// Ramp represents lanes values base, base+stride, ..., base+(lanes-1)*stride.
type Ramp struct {
	Base, Stride Expr
	Lanes        int
	Typ          types.Type
}

func (n *Ramp) Type() types.Type { return n.Typ }
func (n *Ramp) String() string {
	return fmt.Sprintf("ramp(%s, %s, %d)", n.Base, n.Stride, n.Lanes)
}
func (*Ramp) exprNode() {}

// Broadcast replicates a scalar value into Lanes lanes.
type Broadcast struct {
	Value Expr
	Lanes int
	Typ   types.Type
}

func (n *Broadcast) Type() types.Type { return n.Typ }
func (n *Broadcast) String() string {
	return fmt.Sprintf("broadcast(%s, %d)", n.Value, n.Lanes)
}
func (*Broadcast) exprNode() {}

// ---- Let ----

// Let introduces a scoped binding visible within Body.
type Let struct {
	Name  string
	Value Expr
	Body  Expr
}

func (n *Let) Type() types.Type { return n.Body.Type() }
func (n *Let) String() string {
	return fmt.Sprintf("(let %s = %s in %s)", n.Name, n.Value, n.Body)
}
func (*Let) exprNode() {}

// ---- Call ----

// CallKind distinguishes references to user pipeline functions from
// compiler intrinsics and foreign ("extern") C functions.
type CallKind int

const (
	PureFunc CallKind = iota
	Intrinsic
	Extern
)

func (k CallKind) String() string {
	switch k {
	case PureFunc:
		return "PureFunc"
	case Intrinsic:
		return "Intrinsic"
	case Extern:
		return "Extern"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// Call is a reference to a pipeline function, an intrinsic, or an extern.
// FuncRef carries an opaque handle to the callee (*funcs.Func in practice,
// left as `any` here so ir does not import funcs and create a cycle).
type Call struct {
	Name       string
	Args       []Expr
	Kind       CallKind
	FuncRef    any
	ValueIndex int
	Image      bool
	Param      bool
	Typ        types.Type
}

func (n *Call) Type() types.Type { return n.Typ }
func (n *Call) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(parts, ", "))
}
func (*Call) exprNode() {}
