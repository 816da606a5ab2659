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
	"sync"

	"stencilc/types"
)

// Hash-consing table for immediates and Vars: nodes equal in type and
// structure may share a single allocation. This is purely a performance
// optimization — no code outside this file may rely on it for
// correctness, since a fresh (unconsed) node with identical fields is
// just as valid an Expr.
var (
	consMu   sync.Mutex
	intCons  = map[string]*IntImm{}
	uintCons = map[string]*UIntImm{}
	fltCons  = map[string]*FloatImm{}
	varCons  = map[string]*Var{}
)

func internIntImm(v int64, t types.Type) Expr {
	key := fmt.Sprintf("%d:%s", v, t)
	consMu.Lock()
	defer consMu.Unlock()
	if n, ok := intCons[key]; ok {
		return n
	}
	n := &IntImm{Val: v, Typ: t}
	intCons[key] = n
	return n
}

func internUIntImm(v uint64, t types.Type) Expr {
	key := fmt.Sprintf("%d:%s", v, t)
	consMu.Lock()
	defer consMu.Unlock()
	if n, ok := uintCons[key]; ok {
		return n
	}
	n := &UIntImm{Val: v, Typ: t}
	uintCons[key] = n
	return n
}

func internFloatImm(v float64, t types.Type) Expr {
	key := fmt.Sprintf("%g:%s", v, t)
	consMu.Lock()
	defer consMu.Unlock()
	if n, ok := fltCons[key]; ok {
		return n
	}
	n := &FloatImm{Val: v, Typ: t}
	fltCons[key] = n
	return n
}

func internVar(name string, t types.Type) Expr {
	key := fmt.Sprintf("%s:%s", name, t)
	consMu.Lock()
	defer consMu.Unlock()
	if n, ok := varCons[key]; ok {
		return n
	}
	n := &Var{Name: name, Typ: t}
	varCons[key] = n
	return n
}
