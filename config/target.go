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

// Package config resolves the target-descriptor string (arch-bits-os plus
// a closed set of feature flags) and the HL_TARGET/HL_JIT_TARGET/
// HL_NUMTHREADS environment variables that steer the runtime and back end.
// Host feature autodetection uses golang.org/x/sys/cpu to probe AVX/FMA/
// F16C bits.
package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"

	"stencilc/cerr"
)

// Arch is the target architecture field.
type Arch int

const (
	ArchX86 Arch = iota
	ArchARM
	ArchPNaCl
)

func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchARM:
		return "arm"
	case ArchPNaCl:
		return "pnacl"
	default:
		return "unknown"
	}
}

// OS is the target operating-system field.
type OS int

const (
	OSLinux OS = iota
	OSWindows
	OSOSX
	OSAndroid
	OSIOS
	OSNaCl
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSWindows:
		return "windows"
	case OSOSX:
		return "osx"
	case OSAndroid:
		return "android"
	case OSIOS:
		return "ios"
	case OSNaCl:
		return "nacl"
	default:
		return "unknown"
	}
}

// Feature is one flag from the target descriptor's closed feature set.
type Feature string

const (
	FeatureSSE41           Feature = "sse41"
	FeatureAVX             Feature = "avx"
	FeatureAVX2            Feature = "avx2"
	FeatureCUDA            Feature = "cuda"
	FeatureOpenCL          Feature = "opencl"
	FeatureOpenGL          Feature = "opengl"
	FeatureFMA             Feature = "fma"
	FeatureFMA4            Feature = "fma4"
	FeatureF16C            Feature = "f16c"
	FeatureJIT             Feature = "jit"
	FeatureNoAsserts       Feature = "no_asserts"
	FeatureNoBoundsQuery   Feature = "no_bounds_query"
	FeatureCLDoubles       Feature = "cl_doubles"
	FeatureARMv7s          Feature = "armv7s"
	FeatureGPUDebug        Feature = "gpu_debug"
	FeatureCUDACapability30 Feature = "cuda_capability_30"
	FeatureCUDACapability32 Feature = "cuda_capability_32"
	FeatureCUDACapability35 Feature = "cuda_capability_35"
	FeatureCUDACapability50 Feature = "cuda_capability_50"
)

var validFeatures = map[Feature]bool{
	FeatureSSE41: true, FeatureAVX: true, FeatureAVX2: true, FeatureCUDA: true,
	FeatureOpenCL: true, FeatureOpenGL: true, FeatureFMA: true, FeatureFMA4: true,
	FeatureF16C: true, FeatureJIT: true, FeatureNoAsserts: true,
	FeatureNoBoundsQuery: true, FeatureCLDoubles: true, FeatureARMv7s: true,
	FeatureGPUDebug: true, FeatureCUDACapability30: true, FeatureCUDACapability32: true,
	FeatureCUDACapability35: true, FeatureCUDACapability50: true,
}

// Target is a parsed `arch-bits-os[-feature]*` descriptor.
type Target struct {
	Arch     Arch
	Bits     int
	OS       OS
	Features map[Feature]bool
}

// HasFeature reports whether f is set on t.
func (t Target) HasFeature(f Feature) bool { return t.Features[f] }

// Equal compares two targets field by field, ignoring feature-map
// insertion order (used by the round-trip property: parse(t.String())
// must equal t).
func (t Target) Equal(o Target) bool {
	if t.Arch != o.Arch || t.Bits != o.Bits || t.OS != o.OS {
		return false
	}
	if len(t.Features) != len(o.Features) {
		return false
	}
	for f := range t.Features {
		if !o.Features[f] {
			return false
		}
	}
	return true
}

// String renders the target back to its descriptor form, with features
// sorted so to_string is deterministic (required for the round-trip
// invariant to be meaningful across repeated calls).
func (t Target) String() string {
	parts := []string{t.Arch.String(), strconv.Itoa(t.Bits), t.OS.String()}
	features := make([]string, 0, len(t.Features))
	for f, on := range t.Features {
		if on {
			features = append(features, string(f))
		}
	}
	sort.Strings(features)
	parts = append(parts, features...)
	return strings.Join(parts, "-")
}

// HostTarget autodetects the running machine's Target: arch/bits/os from
// runtime.GOARCH/GOOS, features from golang.org/x/sys/cpu — mirroring the
// teacher's dispatch_amd64_simd.go AVX/FMA/F16C probing, generalized to a
// Target's feature set instead of a hwy dispatch tier.
func HostTarget() (Target, error) {
	var arch Arch
	bits := 64
	switch runtime.GOARCH {
	case "amd64":
		arch = ArchX86
	case "386":
		arch = ArchX86
		bits = 32
	case "arm64":
		arch = ArchARM
	case "arm":
		arch = ArchARM
		bits = 32
	default:
		return Target{}, cerr.Newf(cerr.UnsupportedByTarget, "", "unsupported host GOARCH %q", runtime.GOARCH)
	}

	var os OS
	switch runtime.GOOS {
	case "linux":
		os = OSLinux
	case "windows":
		os = OSWindows
	case "darwin":
		os = OSOSX
	case "android":
		os = OSAndroid
	case "ios":
		os = OSIOS
	default:
		return Target{}, cerr.Newf(cerr.UnsupportedByTarget, "", "unsupported host GOOS %q", runtime.GOOS)
	}

	features := map[Feature]bool{}
	if arch == ArchX86 {
		if cpu.X86.HasSSE41 {
			features[FeatureSSE41] = true
		}
		if cpu.X86.HasAVX {
			features[FeatureAVX] = true
		}
		if cpu.X86.HasAVX2 {
			features[FeatureAVX2] = true
		}
		if cpu.X86.HasFMA {
			features[FeatureFMA] = true
		}
		// F16C reliably co-occurs with FMA on Haswell+, matching the
		// teacher's own approximation for the bit x/sys/cpu doesn't expose.
		if cpu.X86.HasFMA {
			features[FeatureF16C] = true
		}
	}

	return Target{Arch: arch, Bits: bits, OS: os, Features: features}, nil
}

// ParseTarget parses a target descriptor string. "host" as the first
// token substitutes the detected host configuration before applying any
// trailing feature tokens from s.
func ParseTarget(s string) (Target, error) {
	tokens := strings.Split(s, "-")
	if len(tokens) == 0 || tokens[0] == "" {
		return Target{}, cerr.New(cerr.ArityMismatch, "empty target string", s)
	}

	var t Target
	rest := tokens
	if tokens[0] == "host" {
		host, err := HostTarget()
		if err != nil {
			return Target{}, err
		}
		t = host
		t.Features = map[Feature]bool{}
		for f, on := range host.Features {
			t.Features[f] = on
		}
		rest = tokens[1:]
	} else {
		if len(tokens) < 3 {
			return Target{}, cerr.Newf(cerr.ArityMismatch, s, "target %q needs at least arch-bits-os", s)
		}
		switch tokens[0] {
		case "x86":
			t.Arch = ArchX86
		case "arm":
			t.Arch = ArchARM
		case "pnacl":
			t.Arch = ArchPNaCl
		default:
			return Target{}, cerr.Newf(cerr.ArityMismatch, s, "unknown arch %q", tokens[0])
		}
		bits, err := strconv.Atoi(tokens[1])
		if err != nil || (bits != 32 && bits != 64) {
			return Target{}, cerr.Newf(cerr.ArityMismatch, s, "invalid bits %q", tokens[1])
		}
		t.Bits = bits
		switch tokens[2] {
		case "linux":
			t.OS = OSLinux
		case "windows":
			t.OS = OSWindows
		case "osx":
			t.OS = OSOSX
		case "android":
			t.OS = OSAndroid
		case "ios":
			t.OS = OSIOS
		case "nacl":
			t.OS = OSNaCl
		default:
			return Target{}, cerr.Newf(cerr.ArityMismatch, s, "unknown os %q", tokens[2])
		}
		t.Features = map[Feature]bool{}
		rest = tokens[3:]
	}

	for _, tok := range rest {
		f := Feature(tok)
		if !validFeatures[f] {
			return Target{}, cerr.Newf(cerr.ArityMismatch, s, "unknown target feature %q", tok)
		}
		t.Features[f] = true
	}
	return t, nil
}

// AOTTarget resolves HL_TARGET (defaulting to "host" when unset), the
// target used for ahead-of-time compilation.
func AOTTarget() (Target, error) {
	s := os.Getenv("HL_TARGET")
	if s == "" {
		s = "host"
	}
	return ParseTarget(s)
}

// JITTarget resolves HL_JIT_TARGET. JIT targets must agree with the host
// on arch/bits/os since the compiled routine runs in this same process.
func JITTarget() (Target, error) {
	s := os.Getenv("HL_JIT_TARGET")
	if s == "" {
		s = "host"
	}
	t, err := ParseTarget(s)
	if err != nil {
		return Target{}, err
	}
	host, err := HostTarget()
	if err != nil {
		return Target{}, err
	}
	if t.Arch != host.Arch || t.Bits != host.Bits || t.OS != host.OS {
		return Target{}, cerr.Newf(cerr.UnsupportedByTarget, s,
			"HL_JIT_TARGET %q disagrees with host %s on arch/bits/os", s, host)
	}
	return t, nil
}

// NumThreads resolves HL_NUMTHREADS (the runtime worker-pool size),
// defaulting to 8 per the runtime model's default, clamped to the
// hardware maximum.
func NumThreads() (int, error) {
	s := os.Getenv("HL_NUMTHREADS")
	if s == "" {
		return clampThreads(8), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: invalid HL_NUMTHREADS %q", s)
	}
	return clampThreads(n), nil
}

func clampThreads(n int) int {
	if max := runtime.NumCPU(); n > max {
		return max
	}
	return n
}
