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

package device

import "stencilc/cerr"

// AllocOptions configures HostMalloc. Resolves the open question of
// whether guard-page-style overrun detection runs by default: it's
// opt-in, off unless WithGuardPages(true) is passed, since Go slices
// already carry bounds checks and the guard-page behavior only matters
// for catching out-of-bounds writes from code that bypasses them (e.g.
// through unsafe.Pointer arithmetic in a generated back end).
type AllocOptions struct {
	guardPages bool
}

// AllocOption mutates AllocOptions.
type AllocOption func(*AllocOptions)

// WithGuardPages enables canary bytes around a host allocation, checked
// by CheckGuardPages before the allocation is freed.
func WithGuardPages(enabled bool) AllocOption {
	return func(o *AllocOptions) { o.guardPages = enabled }
}

const guardSize = 32
const guardByte = 0xA5

// HostAlloc is a Buffer's host-memory allocator. With WithGuardPages, it
// pads the allocation with canary regions before and after the usable
// range, letting CheckGuardPages detect an overrun before the buffer is
// released — the Go-native analogue of the original's debug-mode
// safe_malloc guard pages, opt-in rather than unconditional.
type HostAlloc struct {
	buf   []byte
	start int
	size  int
	opts  AllocOptions
}

// NewHostAlloc allocates n usable bytes.
func NewHostAlloc(n int, opts ...AllocOption) *HostAlloc {
	var o AllocOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.guardPages {
		return &HostAlloc{buf: make([]byte, n), start: 0, size: n, opts: o}
	}
	buf := make([]byte, n+2*guardSize)
	for i := 0; i < guardSize; i++ {
		buf[i] = guardByte
		buf[len(buf)-1-i] = guardByte
	}
	return &HostAlloc{buf: buf, start: guardSize, size: n, opts: o}
}

// Bytes returns the usable slice (excluding guard regions, if any).
func (a *HostAlloc) Bytes() []byte { return a.buf[a.start : a.start+a.size] }

// CheckGuardPages verifies the canary bytes are untouched, returning a
// RuntimeError of kind AssertionFailure if an overrun corrupted them. A
// no-op when guard pages weren't requested.
func (a *HostAlloc) CheckGuardPages() error {
	if !a.opts.guardPages {
		return nil
	}
	for i := 0; i < guardSize; i++ {
		if a.buf[i] != guardByte || a.buf[len(a.buf)-1-i] != guardByte {
			return cerr.NewRuntime(cerr.AssertionFailure, "host allocation guard page corrupted")
		}
	}
	return nil
}
