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

package config

import "testing"

func TestParseTargetRoundTrip(t *testing.T) {
	cases := []string{
		"x86-64-linux-sse41",
		"x86-64-linux",
		"arm-32-android-armv7s",
	}
	for _, s := range cases {
		got, err := ParseTarget(s)
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", s, err)
		}
		again, err := ParseTarget(got.String())
		if err != nil {
			t.Fatalf("ParseTarget(%q) [round trip]: %v", got.String(), err)
		}
		if !got.Equal(again) {
			t.Errorf("round trip mismatch: %s -> %s -> %s", s, got.String(), again.String())
		}
	}
}

func TestParseTargetHostCUDAAVX2(t *testing.T) {
	got, err := ParseTarget("host-cuda-avx2")
	if err != nil {
		t.Fatalf("ParseTarget: %v", err)
	}
	if !got.HasFeature(FeatureCUDA) || !got.HasFeature(FeatureAVX2) {
		t.Errorf("got = %+v, want cuda and avx2 set", got)
	}
	host, err := HostTarget()
	if err != nil {
		t.Fatalf("HostTarget: %v", err)
	}
	if got.Arch != host.Arch || got.Bits != host.Bits || got.OS != host.OS {
		t.Errorf("host-prefixed target = %+v, want host config %+v for arch/bits/os", got, host)
	}
}

func TestParseTargetUnknownFeatureFails(t *testing.T) {
	if _, err := ParseTarget("x86-64-linux-bogus_feature"); err == nil {
		t.Fatal("expected an error for an unknown feature token")
	}
}

func TestParseTargetTooFewFields(t *testing.T) {
	if _, err := ParseTarget("x86-64"); err == nil {
		t.Fatal("expected an error for a target missing the os field")
	}
}

func TestEqualIgnoresFeatureInsertionOrder(t *testing.T) {
	a := Target{Arch: ArchX86, Bits: 64, OS: OSLinux, Features: map[Feature]bool{FeatureAVX: true, FeatureFMA: true}}
	b := Target{Arch: ArchX86, Bits: 64, OS: OSLinux, Features: map[Feature]bool{FeatureFMA: true, FeatureAVX: true}}
	if !a.Equal(b) {
		t.Error("targets with the same features inserted in a different order should be Equal")
	}
}

func TestNumThreadsDefault(t *testing.T) {
	t.Setenv("HL_NUMTHREADS", "")
	n, err := NumThreads()
	if err != nil {
		t.Fatalf("NumThreads: %v", err)
	}
	if n <= 0 {
		t.Errorf("NumThreads() = %d, want > 0", n)
	}
}

func TestNumThreadsInvalid(t *testing.T) {
	t.Setenv("HL_NUMTHREADS", "not-a-number")
	if _, err := NumThreads(); err == nil {
		t.Fatal("expected an error for a non-numeric HL_NUMTHREADS")
	}
}

func TestJITTargetMustAgreeWithHost(t *testing.T) {
	host, err := HostTarget()
	if err != nil {
		t.Fatalf("HostTarget: %v", err)
	}
	var foreignArch Arch
	if host.Arch == ArchX86 {
		foreignArch = ArchARM
	} else {
		foreignArch = ArchX86
	}
	foreign := Target{Arch: foreignArch, Bits: host.Bits, OS: host.OS, Features: map[Feature]bool{}}
	t.Setenv("HL_JIT_TARGET", foreign.String())
	if _, err := JITTarget(); err == nil {
		t.Fatal("JITTarget should reject a target disagreeing with the host on arch")
	}
}
