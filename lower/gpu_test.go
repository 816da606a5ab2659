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
	"testing"

	"stencilc/cerr"
	"stencilc/ir"
)

func TestCheckGPULoopNestingAcceptsBlocksOutsideThreads(t *testing.T) {
	inner := &ir.For{Name: "tx", ForType: ir.Serial, Device: ir.GPUThread,
		Min: ir.NewIntImm(0), Extent: ir.NewIntImm(32), Body: &ir.Evaluate{Expr: ir.NewIntImm(0)}}
	outer := &ir.For{Name: "bx", ForType: ir.Serial, Device: ir.GPUBlock,
		Min: ir.NewIntImm(0), Extent: ir.NewIntImm(4), Body: inner}
	if err := checkGPULoopNesting(outer); err != nil {
		t.Errorf("gpu_blocks enclosing gpu_threads should be valid, got %v", err)
	}
}

func TestCheckGPULoopNestingRejectsBlocksInsideThreads(t *testing.T) {
	inner := &ir.For{Name: "bx", ForType: ir.Serial, Device: ir.GPUBlock,
		Min: ir.NewIntImm(0), Extent: ir.NewIntImm(4), Body: &ir.Evaluate{Expr: ir.NewIntImm(0)}}
	outer := &ir.For{Name: "tx", ForType: ir.Serial, Device: ir.GPUThread,
		Min: ir.NewIntImm(0), Extent: ir.NewIntImm(32), Body: inner}
	err := checkGPULoopNesting(outer)
	if err == nil {
		t.Fatal("gpu_blocks nested inside gpu_threads should be rejected")
	}
	ce, ok := err.(*cerr.CompileError)
	if !ok || ce.Kind != cerr.UnsupportedByTarget {
		t.Fatalf("err = %v, want an UnsupportedByTarget CompileError", err)
	}
}

func TestCheckGPULoopNestingAcceptsHostLoops(t *testing.T) {
	loop := &ir.For{Name: "x", ForType: ir.Serial, Device: ir.Host,
		Min: ir.NewIntImm(0), Extent: ir.NewIntImm(10), Body: &ir.Evaluate{Expr: ir.NewIntImm(0)}}
	if err := checkGPULoopNesting(loop); err != nil {
		t.Errorf("plain host loop should be valid, got %v", err)
	}
}
