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

package main

import (
	"fmt"

	"stencilc/funcs"
	"stencilc/ir"
	"stencilc/lower"
	"stencilc/schedule"
	"stencilc/types"
)

// boxBlurPipeline builds a 3x3 box blur: a gray8 input buffer, a
// horizontal sum of the three taps in x, then a
// vertical sum of the three taps in y, each divided by 3. blur_y is the
// root, computed over the width x height region given by w, h.
func boxBlurPipeline(w, h int) (*lower.Pipeline, []ir.Range, error) {
	x := ir.NewVar("x", types.Int32)
	y := ir.NewVar("y", types.Int32)

	input := funcs.New("input")
	if err := input.Define([]string{"x", "y"}, ir.NewCall("gray8_source", []ir.Expr{x, y}, ir.Extern, types.UInt8)); err != nil {
		return nil, nil, fmt.Errorf("define input: %w", err)
	}

	blurX := funcs.New("blur_x")
	xm1, err := ir.NewSub(x, ir.NewIntImm(1))
	if err != nil {
		return nil, nil, err
	}
	xp1, err := ir.NewAdd(x, ir.NewIntImm(1))
	if err != nil {
		return nil, nil, err
	}
	left, err := input.Call([]ir.Expr{xm1, y}, 0)
	if err != nil {
		return nil, nil, err
	}
	center, err := input.Call([]ir.Expr{x, y}, 0)
	if err != nil {
		return nil, nil, err
	}
	right, err := input.Call([]ir.Expr{xp1, y}, 0)
	if err != nil {
		return nil, nil, err
	}
	sumX, err := threeTapSum(left, center, right)
	if err != nil {
		return nil, nil, err
	}
	if err := blurX.Define([]string{"x", "y"}, sumX); err != nil {
		return nil, nil, fmt.Errorf("define blur_x: %w", err)
	}

	blurY := funcs.New("blur_y")
	ym1, err := ir.NewSub(y, ir.NewIntImm(1))
	if err != nil {
		return nil, nil, err
	}
	yp1, err := ir.NewAdd(y, ir.NewIntImm(1))
	if err != nil {
		return nil, nil, err
	}
	top, err := blurX.Call([]ir.Expr{x, ym1}, 0)
	if err != nil {
		return nil, nil, err
	}
	mid, err := blurX.Call([]ir.Expr{x, y}, 0)
	if err != nil {
		return nil, nil, err
	}
	bottom, err := blurX.Call([]ir.Expr{x, yp1}, 0)
	if err != nil {
		return nil, nil, err
	}
	sumY, err := threeTapSum(top, mid, bottom)
	if err != nil {
		return nil, nil, err
	}
	if err := blurY.Define([]string{"x", "y"}, sumY); err != nil {
		return nil, nil, fmt.Errorf("define blur_y: %w", err)
	}

	scheduleInput := schedule.New("input", []string{"x", "y"})
	scheduleInput.ComputeInline()

	scheduleBlurX := schedule.New("blur_x", []string{"x", "y"})
	if err := scheduleBlurX.Vectorize("x", 8); err != nil {
		return nil, nil, err
	}
	scheduleBlurX.ComputeInline()

	scheduleBlurY := schedule.New("blur_y", []string{"x", "y"})
	if err := scheduleBlurY.Parallel("y"); err != nil {
		return nil, nil, err
	}
	if err := scheduleBlurY.Vectorize("x", 8); err != nil {
		return nil, nil, err
	}
	scheduleBlurY.ComputeRoot()

	p := lower.NewPipeline("blur_y")
	p.Add(input, scheduleInput)
	p.Add(blurX, scheduleBlurX)
	p.Add(blurY, scheduleBlurY)

	bounds := []ir.Range{
		{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(int64(w))},
		{Min: ir.NewIntImm(0), Extent: ir.NewIntImm(int64(h))},
	}
	return p, bounds, nil
}

// threeTapSum divides the sum of three neighboring samples by 3, widening
// to Int32 first so the intermediate sum cannot overflow a uint8 lane.
func threeTapSum(a, b, c ir.Expr) (ir.Expr, error) {
	wide := func(e ir.Expr) ir.Expr { return ir.NewCast(types.Int32, e) }
	ab, err := ir.NewAdd(wide(a), wide(b))
	if err != nil {
		return nil, err
	}
	sum, err := ir.NewAdd(ab, wide(c))
	if err != nil {
		return nil, err
	}
	return ir.NewDiv(sum, ir.NewIntImm(3))
}
