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

package schedule

import (
	"testing"

	"stencilc/ir"
)

func TestSplitReplacesDimension(t *testing.T) {
	s := New("f", []string{"x", "y"})
	if err := s.Split("x", "xo", "xi", 4, RoundUp); err != nil {
		t.Fatalf("Split: %v", err)
	}
	names := dimNames(s)
	want := []string{"xo", "xi", "y"}
	if !equalStrs(names, want) {
		t.Errorf("Dims after split = %v, want %v", names, want)
	}
}

func TestSplitUnknownDimFails(t *testing.T) {
	s := New("f", []string{"x"})
	if err := s.Split("z", "zo", "zi", 4, GuardWithIf); err == nil {
		t.Fatal("Split on unknown dim should fail")
	}
}

func TestTileProducesFourDimsInOuterInnerOrder(t *testing.T) {
	s := New("f", []string{"x", "y"})
	if err := s.Tile("x", "y", "xo", "yo", "xi", "yi", 8, 8); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	names := dimNames(s)
	want := []string{"yo", "xo", "yi", "xi"}
	if !equalStrs(names, want) {
		t.Errorf("Dims after tile = %v, want %v", names, want)
	}
}

func TestVectorizeSetsForType(t *testing.T) {
	s := New("f", []string{"x"})
	if err := s.Vectorize("x", 8); err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if s.Dims[0].ForType != ir.Vectorized {
		t.Errorf("ForType = %v, want Vectorized", s.Dims[0].ForType)
	}
}

func TestGPUBlocksRejectsMoreThanThree(t *testing.T) {
	s := New("f", []string{"a", "b", "c", "d"})
	if err := s.GPUBlocks("a", "b", "c", "d"); err == nil {
		t.Fatal("gpu_blocks with 4 dims should fail")
	}
}

func TestComputeAtRequiresConsumerDim(t *testing.T) {
	producer := New("p", []string{"x"})
	consumer := New("c", []string{"x", "y"})
	if err := producer.ComputeAt(consumer, "y"); err != nil {
		t.Fatalf("ComputeAt: %v", err)
	}
	if err := producer.ComputeAt(consumer, "z"); err == nil {
		t.Fatal("ComputeAt with unknown consumer dim should fail")
	}
}

func TestStoreAtDeeperThanComputeAtFails(t *testing.T) {
	producer := New("p", []string{"x"})
	consumer := New("c", []string{"xo", "xi"})
	if err := producer.ComputeAt(consumer, "xo"); err != nil {
		t.Fatalf("ComputeAt: %v", err)
	}
	if err := producer.StoreAt(consumer, "xi"); err == nil {
		t.Fatal("store_at deeper than compute_at should fail")
	}
	if err := producer.StoreAt(consumer, "xo"); err != nil {
		t.Fatalf("store_at at same level as compute_at should succeed: %v", err)
	}
}

func TestTransposeRejectsNonAdjacent(t *testing.T) {
	s := New("f", []string{"x", "y", "z"})
	if err := s.Transpose("x", "z"); err == nil {
		t.Fatal("transpose of non-adjacent dims should fail")
	}
	if err := s.Transpose("x", "y"); err != nil {
		t.Fatalf("transpose of adjacent dims should succeed: %v", err)
	}
}

func TestComputeInlineShortcut(t *testing.T) {
	s := New("f", []string{"x"})
	s.ComputeInline()
	if !s.ComputeLevel.IsInline() || !s.StoreLevel.IsInline() {
		t.Error("ComputeInline should set both levels to Inline")
	}
}

func dimNames(s *Schedule) []string {
	names := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		names[i] = d.Name
	}
	return names
}

func equalStrs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
