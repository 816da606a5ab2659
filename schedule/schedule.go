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

// Package schedule implements per-function scheduling state and the
// directives (split, tile, reorder, vectorize, parallelize,
// unroll, fuse, compute_at, store_at, inline) that mutate it. Directives
// compose left-to-right and validate locally; the lowering pipeline
// (package lower) is the only consumer that reads the final Schedule.
package schedule

import (
	"slices"

	"stencilc/cerr"
	"stencilc/ir"
)

// TailPolicy controls how a split's outer loop handles an extent that is
// not an exact multiple of the split factor.
type TailPolicy int

const (
	GuardWithIf TailPolicy = iota
	RoundUp
	ShiftInwards
)

func (p TailPolicy) String() string {
	switch p {
	case GuardWithIf:
		return "GuardWithIf"
	case RoundUp:
		return "RoundUp"
	case ShiftInwards:
		return "ShiftInwards"
	default:
		return "TailPolicy(?)"
	}
}

// Split records that dimension Parent has been replaced by (Outer, Inner),
// Inner running [0, Factor).
type Split struct {
	Parent, Outer, Inner string
	Factor               int
	Tail                 TailPolicy
}

// Dim is one entry in the ordered loop nest, outermost first.
type Dim struct {
	Name    string
	ForType ir.ForType
	Device  ir.Device
}

// Level is a pointer into a consumer's loop nest, or one of the special
// values Inline/Root.
type Level struct {
	ConsumerFunc string
	Var          string
	kind         levelKind
}

type levelKind int

const (
	levelNormal levelKind = iota
	levelInline
	levelRoot
)

// InlineLevel is the special store/compute level meaning "substitute this
// function's definition at every call site".
var InlineLevel = Level{kind: levelInline}

// RootLevel is the special store/compute level meaning "materialize once
// for the entire pipeline".
var RootLevel = Level{kind: levelRoot}

func (l Level) IsInline() bool { return l.kind == levelInline }
func (l Level) IsRoot() bool   { return l.kind == levelRoot }

// BoundConstraint overrides the inferred (min, extent) of a dimension.
type BoundConstraint struct {
	Dim         string
	Min, Extent ir.Expr
}

// Schedule holds the complete set of scheduling directives for one Func.
type Schedule struct {
	FuncName string

	Dims   []Dim
	Splits []Split
	Fuses  []Fuse

	StoreLevel   Level
	ComputeLevel Level

	Bounds []BoundConstraint

	gpuBlocks  []string
	gpuThreads []string
}

// New creates a Schedule for funcName with a single Serial dimension per
// pure variable name, in the order given (outermost first) — the default,
// unscheduled loop nest a Func gets before any directive is applied.
func New(funcName string, pureVars []string) *Schedule {
	dims := make([]Dim, len(pureVars))
	for i, v := range pureVars {
		dims[i] = Dim{Name: v, ForType: ir.Serial, Device: ir.Host}
	}
	return &Schedule{
		FuncName:     funcName,
		Dims:         dims,
		ComputeLevel: RootLevel,
		StoreLevel:   RootLevel,
	}
}

func (s *Schedule) dimIndex(name string) int {
	return slices.IndexFunc(s.Dims, func(d Dim) bool { return d.Name == name })
}

func (s *Schedule) requireDim(name string) (int, error) {
	i := s.dimIndex(name)
	if i < 0 {
		return -1, cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "dimension %q not present in schedule for %q", name, s.FuncName)
	}
	return i, nil
}

// Split replaces dimension d with (outer, inner), inner running the
// split factor.
func (s *Schedule) Split(d, outer, inner string, factor int, tail TailPolicy) error {
	if factor < 1 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "split factor must be >= 1, got %d", factor)
	}
	i, err := s.requireDim(d)
	if err != nil {
		return err
	}
	old := s.Dims[i]
	replacement := []Dim{
		{Name: outer, ForType: old.ForType, Device: old.Device},
		{Name: inner, ForType: old.ForType, Device: old.Device},
	}
	s.Dims = slices.Replace(s.Dims, i, i+1, replacement...)
	s.Splits = append(s.Splits, Split{Parent: d, Outer: outer, Inner: inner, Factor: factor, Tail: tail})
	return nil
}

// Tile splits both x and y and reorders the four resulting dimensions to
// (yo, xo, yi, xi).
func (s *Schedule) Tile(x, y, xo, yo, xi, yi string, fx, fy int) error {
	if s.dimIndex(x) < 0 || s.dimIndex(y) < 0 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "tile requires both %q and %q present", x, y)
	}
	if err := s.Split(x, xo, xi, fx, GuardWithIf); err != nil {
		return err
	}
	if err := s.Split(y, yo, yi, fy, GuardWithIf); err != nil {
		return err
	}
	return s.Reorder(yo, xo, yi, xi)
}

// Reorder rearranges the named dimensions among the positions they
// currently occupy so that they appear in the order given, outermost
// first; dimensions not named keep their positions. Every name must be a
// dimension currently present in the schedule.
func (s *Schedule) Reorder(names ...string) error {
	indices := make([]int, len(names))
	for i, n := range names {
		idx, err := s.requireDim(n)
		if err != nil {
			return err
		}
		indices[i] = idx
	}
	sorted := append([]int(nil), indices...)
	slices.Sort(sorted)
	reordered := make([]Dim, len(s.Dims))
	copy(reordered, s.Dims)
	for slot, srcIdx := range indices {
		reordered[sorted[slot]] = s.Dims[srcIdx]
	}
	s.Dims = reordered
	return nil
}

// Fuse records that the two adjacent dimensions inner and outer collapse
// into a single dimension fused of their product extent. The lowering
// pipeline names it explicitly as a schedule-driven transform, so it is
// exposed here with the same local-validation contract as the other
// directives.
type Fuse struct {
	Inner, Outer, Fused string
}

// Fuses records a fuse of adjacent dimensions inner, outer into fused.
func (s *Schedule) Fuse(inner, outer, fused string) error {
	io, err := s.requireDim(inner)
	if err != nil {
		return err
	}
	oo, err := s.requireDim(outer)
	if err != nil {
		return err
	}
	if abs(io-oo) != 1 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "fuse(%s, %s) requires adjacent dimensions", inner, outer)
	}
	lo := io
	if oo < lo {
		lo = oo
	}
	replacement := Dim{Name: fused, ForType: s.Dims[io].ForType, Device: s.Dims[io].Device}
	s.Dims = slices.Replace(s.Dims, lo, lo+2, replacement)
	s.Fuses = append(s.Fuses, Fuse{Inner: inner, Outer: outer, Fused: fused})
	return nil
}

// Parallel marks dimension d for parallel execution.
func (s *Schedule) Parallel(d string) error {
	i, err := s.requireDim(d)
	if err != nil {
		return err
	}
	s.Dims[i].ForType = ir.Parallel
	return nil
}

// Vectorize marks dimension d vectorized. w must be >= 1 but is not
// recorded: lowering takes the vector width from the loop's extent, which
// must be a compile-time constant by then, and reports an error
// otherwise. No tail policy is applied to a vectorized loop.
func (s *Schedule) Vectorize(d string, w int) error {
	if w < 1 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "vectorize width must be >= 1, got %d", w)
	}
	i, err := s.requireDim(d)
	if err != nil {
		return err
	}
	s.Dims[i].ForType = ir.Vectorized
	return nil
}

// Unroll fully unrolls dimension d, which must have a statically known
// extent by the time lowering runs.
func (s *Schedule) Unroll(d string, w int) error {
	if w < 1 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "unroll width must be >= 1, got %d", w)
	}
	i, err := s.requireDim(d)
	if err != nil {
		return err
	}
	s.Dims[i].ForType = ir.Unrolled
	return nil
}

// GPUBlocks maps up to 3 dimensions onto the GPU block index space.
func (s *Schedule) GPUBlocks(dims ...string) error {
	if len(dims) > 3 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "gpu_blocks accepts at most 3 dimensions, got %d", len(dims))
	}
	for _, d := range dims {
		i, err := s.requireDim(d)
		if err != nil {
			return err
		}
		s.Dims[i].Device = ir.GPUBlock
	}
	s.gpuBlocks = dims
	return nil
}

// GPUThreads maps up to 3 dimensions onto the GPU thread index space.
func (s *Schedule) GPUThreads(dims ...string) error {
	if len(dims) > 3 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "gpu_threads accepts at most 3 dimensions, got %d", len(dims))
	}
	for _, d := range dims {
		i, err := s.requireDim(d)
		if err != nil {
			return err
		}
		s.Dims[i].Device = ir.GPUThread
	}
	s.gpuThreads = dims
	return nil
}

// ComputeAt hoists this function's production into consumer's loop nest at
// dimension d, which must be a dimension consumer's schedule currently has.
func (s *Schedule) ComputeAt(consumer *Schedule, d string) error {
	if _, err := consumer.requireDim(d); err != nil {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "compute_at(%s, %s): %v", consumer.FuncName, d, err)
	}
	s.ComputeLevel = Level{ConsumerFunc: consumer.FuncName, Var: d}
	return nil
}

// StoreAt allocates this function's storage in consumer's loop nest at
// dimension d. Store level must be no deeper than compute level; since
// both are expressed as (consumer, dim) pairs against the same consumer
// schedule, "no deeper" is checked by dimension index when both levels
// share a consumer.
func (s *Schedule) StoreAt(consumer *Schedule, d string) error {
	idx, err := consumer.requireDim(d)
	if err != nil {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName, "store_at(%s, %s): %v", consumer.FuncName, d, err)
	}
	if s.ComputeLevel.ConsumerFunc == consumer.FuncName && !s.ComputeLevel.IsRoot() && !s.ComputeLevel.IsInline() {
		computeIdx, _ := consumer.requireDim(s.ComputeLevel.Var)
		if idx > computeIdx {
			return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName,
				"store_at(%s, %s) is deeper than compute_at(%s, %s)", consumer.FuncName, d, consumer.FuncName, s.ComputeLevel.Var)
		}
	}
	s.StoreLevel = Level{ConsumerFunc: consumer.FuncName, Var: d}
	return nil
}

// ComputeRoot is a shortcut setting both compute and store level to Root.
func (s *Schedule) ComputeRoot() {
	s.ComputeLevel = RootLevel
	s.StoreLevel = RootLevel
}

// ComputeInline is a shortcut setting both compute and store level to
// Inline: the function's definition is substituted at every call site
// during lowering step 3 instead of being materialized at all.
func (s *Schedule) ComputeInline() {
	s.ComputeLevel = InlineLevel
	s.StoreLevel = InlineLevel
}

// Bound overrides the inferred (min, extent) of dimension dim.
func (s *Schedule) Bound(dim string, min, extent ir.Expr) error {
	if _, err := s.requireDim(dim); err != nil {
		return err
	}
	s.Bounds = append(s.Bounds, BoundConstraint{Dim: dim, Min: min, Extent: extent})
	return nil
}

// Transpose swaps the order of dimensions a and b. When the pair is not
// adjacent in the current loop order, the intended tie-break between
// several possible reorderings is ambiguous, so this implementation
// rejects non-adjacent transposes outright rather than guessing at a
// reordering semantics.
func (s *Schedule) Transpose(a, b string) error {
	ia, err := s.requireDim(a)
	if err != nil {
		return err
	}
	ib, err := s.requireDim(b)
	if err != nil {
		return err
	}
	if abs(ia-ib) != 1 {
		return cerr.Newf(cerr.ScheduleInconsistency, s.FuncName,
			"transpose(%s, %s): dimensions are not adjacent in the current loop order (positions %d, %d)", a, b, ia, ib)
	}
	s.Dims[ia], s.Dims[ib] = s.Dims[ib], s.Dims[ia]
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
