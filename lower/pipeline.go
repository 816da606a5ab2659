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
	"context"

	"golang.org/x/sync/errgroup"

	"stencilc/cerr"
	"stencilc/funcs"
	"stencilc/ir"
)

// Pass is one named step of the lowering pipeline, run in a fixed order.
type Pass struct {
	Name string
	Run  func(*State) error
}

// State threads the accumulated Stmt and its owning Pipeline through each
// Pass.
type State struct {
	Pipeline   *Pipeline
	RootBounds []ir.Range
	Stmt       ir.Stmt
}

// Lower runs the full lowering pipeline against p, producing the final
// flat, annotated Stmt for an output buffer of the given rootBounds (the
// caller-supplied region of the root function to materialize — there is no
// Realize/Allocate for the root itself, since its storage is the caller's
// own output buffer).
func Lower(p *Pipeline, rootBounds []ir.Range) (ir.Stmt, error) {
	root, ok := p.Funcs[p.Root]
	if !ok {
		return nil, cerr.Newf(cerr.ScheduleInconsistency, p.Root, "pipeline root %q is not a registered function", p.Root)
	}
	if len(rootBounds) != len(root.PureVars) {
		return nil, cerr.Newf(cerr.ArityMismatch, p.Root, "root bounds has %d dimensions, root function has %d", len(rootBounds), len(root.PureVars))
	}

	st := &State{Pipeline: p, RootBounds: rootBounds}

	passes := []Pass{
		{"build_and_place", func(s *State) error {
			stmt, err := placeCallees(s.Pipeline)
			if err != nil {
				return err
			}
			s.Stmt = stmt
			return nil
		}},
		{"bind_root_bounds", func(s *State) error {
			s.Stmt = bindRootBounds(root, s.RootBounds, s.Stmt)
			return nil
		}},
		{"infer_bounds", func(s *State) error {
			stmt, err := inferBounds(s.Stmt)
			if err != nil {
				return err
			}
			s.Stmt = stmt
			return nil
		}},
		{"fold_storage", func(s *State) error {
			s.Stmt = foldStorage(s.Stmt, s.Pipeline)
			return nil
		}},
		{"realize_to_allocate", func(s *State) error {
			stmt, err := realizeToAllocate(s.Stmt, s.Pipeline)
			if err != nil {
				return err
			}
			s.Stmt = stmt
			return nil
		}},
		{"lower_root_storage", func(s *State) error {
			stmt, err := lowerRootProvide(s.Stmt, root, s.RootBounds)
			if err != nil {
				return err
			}
			s.Stmt = stmt
			return nil
		}},
		{"vectorize", func(s *State) error {
			stmt, err := vectorizeLoops(s.Stmt)
			if err != nil {
				return err
			}
			s.Stmt = stmt
			return nil
		}},
		{"unroll", func(s *State) error {
			stmt, err := unrollLoops(s.Stmt)
			if err != nil {
				return err
			}
			s.Stmt = stmt
			return nil
		}},
		{"check_gpu_nesting", func(s *State) error {
			return checkGPULoopNesting(s.Stmt)
		}},
		{"inject_asserts", func(s *State) error {
			s.Stmt = injectAllocationAsserts(s.Stmt)
			return nil
		}},
	}

	for _, pass := range passes {
		if err := pass.Run(st); err != nil {
			return nil, cerr.Wrap(cerr.IRTypeError, pass.Name, err)
		}
	}
	return st.Stmt, nil
}

// bindRootBounds wraps stmt with LetStmt bindings fixing the root
// function's own symbolic "root.dim.min"/"root.dim.extent" parameters
// (the ones buildLoopNest reads for any dimension that is neither a split
// child nor bound-overridden) to the caller-supplied rootBounds, so bounds
// inference and every later pass see concrete expressions at the root
// the same way they would for any other function's Realize.
func bindRootBounds(root *funcs.Func, bounds []ir.Range, stmt ir.Stmt) ir.Stmt {
	for i := len(root.PureVars) - 1; i >= 0; i-- {
		name := root.PureVars[i]
		stmt = &ir.LetStmt{Name: boundVarName(root.Name, name, "extent"), Value: bounds[i].Extent, Body: stmt}
		stmt = &ir.LetStmt{Name: boundVarName(root.Name, name, "min"), Value: bounds[i].Min, Body: stmt}
	}
	return stmt
}

// LowerAll lowers several independent pipelines concurrently, returning
// results in the same order as pipelines. Each pipeline's root bounds are
// given by the matching entry of rootBounds. Lowering one pipeline never
// reads another's Pipeline state, so this is safe to parallelize outright
// with golang.org/x/sync/errgroup, unlike the per-producer work inside a
// single pipeline's placeCallees, which has genuine ordering dependencies.
func LowerAll(ctx context.Context, pipelines []*Pipeline, rootBounds [][]ir.Range) ([]ir.Stmt, error) {
	results := make([]ir.Stmt, len(pipelines))
	g, _ := errgroup.WithContext(ctx)
	for i := range pipelines {
		i := i
		g.Go(func() error {
			stmt, err := Lower(pipelines[i], rootBounds[i])
			if err != nil {
				return err
			}
			results[i] = stmt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
