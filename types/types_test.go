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

package types

import "testing"

func TestPromoteScalarBroadcast(t *testing.T) {
	vec := New(Float, 32, 8)
	scalar := Scalar(Int, 32)

	got, err := Promote(vec, scalar)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	want := New(Float, 32, 8)
	if !got.Equal(want) {
		t.Errorf("Promote(%s, %s) = %s, want %s", vec, scalar, got, want)
	}
}

func TestPromoteLaneMismatchFails(t *testing.T) {
	a := New(Float, 32, 8)
	b := New(Float, 32, 4)
	if _, err := Promote(a, b); err == nil {
		t.Fatal("Promote: expected lane mismatch error, got nil")
	}
}

func TestPromoteWidensBits(t *testing.T) {
	tests := []struct {
		a, b Type
		want Type
	}{
		{Int32, Int64, Int64},
		{UInt8, UInt32, UInt32},
		{Int32, Float32, Float32},
		{Float32, Float64, Float64},
		{UInt16, Int16, Int16},
	}
	for _, tt := range tests {
		got, err := Promote(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Promote(%s, %s): %v", tt.a, tt.b, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Promote(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{Int32, "int32"},
		{New(Float, 32, 8), "float32x8"},
		{HandleT, "handle"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewRejectsBadLanes(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New: expected panic for lanes=0")
		}
	}()
	New(Int, 32, 0)
}

func TestBytes(t *testing.T) {
	if Int32.Bytes() != 4 {
		t.Errorf("Int32.Bytes() = %d, want 4", Int32.Bytes())
	}
	if Bool.Bytes() != 1 {
		t.Errorf("Bool.Bytes() = %d, want 1", Bool.Bytes())
	}
}
