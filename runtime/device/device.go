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

// Package device is the runtime's device bridge: host/device dirty-bit
// buffer consistency, a spinlock-protected process-wide device context,
// and chunked multi-dimensional copies. It models the familiar acquire-
// context/copy-if-dirty/release protocol a CUDA or OpenCL runtime would
// implement, but backs "device memory" with a plain Go byte slice rather
// than a real GPU: this runtime targets hosts without accelerators, so
// the device surface is exercised against a simulated device, not a
// CUDA/OpenCL driver.
package device

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"stencilc/cerr"
)

// Handle is an opaque device-memory allocation, analogous to a CUdeviceptr.
type Handle struct {
	mem []byte
}

// Bytes exposes the handle's backing memory to a Kernel. A real device
// backend would keep this opaque to the host; the simulated device is
// addressed directly since there is no separate device address space to
// cross.
func (h *Handle) Bytes() []byte { return h.mem }

// Buffer mirrors the compiled pipeline's buffer descriptor: a host
// pointer, a device handle, dirty bits, and up to 4 dimensions of
// extent/stride/min.
type Buffer struct {
	Host        []byte
	Device      *Handle
	HostDirty   bool
	DeviceDirty bool
	Extent      [4]int
	Stride      [4]int
	Min         [4]int
	ElemSize    int
}

// contiguousChunks walks Buffer's dims to find the largest prefix of
// dimensions whose strides form a contiguous run (stride[i] == extent[i-1]
// * stride[i-1]), then returns the chunk size in bytes and the number of
// chunks, per "sized by the innermost contiguous stride".
func (b *Buffer) contiguousChunks() (chunkBytes, numChunks int) {
	chunkElems := 1
	dim := 0
	for dim < 4 && b.Extent[dim] > 0 {
		expectedStride := chunkElems
		if b.Stride[dim] != expectedStride {
			break
		}
		chunkElems *= b.Extent[dim]
		dim++
	}
	if chunkElems == 0 {
		chunkElems = 1
	}
	total := 1
	for d := 0; d < 4; d++ {
		if b.Extent[d] > 0 {
			total *= b.Extent[d]
		}
	}
	numChunks = 1
	if chunkElems > 0 {
		numChunks = total / chunkElems
	}
	return chunkElems * b.ElemSize, numChunks
}

// Context is the process-wide device context, protected by a test-and-set
// spinlock. Acquire blocks (spins) while a previous acquire hasn't been
// released; acquire is re-entrant only via matched acquire/release pairs,
// never via overlap.
type Context struct {
	locked    atomic.Bool
	once      sync.Once
	initError error
}

// DefaultContext is the process-wide singleton device context.
var DefaultContext = &Context{}

// Acquire spins until it wins the test-and-set lock, then lazily
// initializes the context on first use.
func (c *Context) Acquire() error {
	for !c.locked.CompareAndSwap(false, true) {
		// busy-wait: a spinlock rather than a blocking mutex, since context
		// hold times are expected to be short.
	}
	c.once.Do(func() {
		// init_kernels equivalent: nothing to do for the simulated device.
	})
	return c.initError
}

// Release pops and clears the lock, pairing with a prior Acquire.
func (c *Context) Release() {
	c.locked.Store(false)
}

// DeviceMalloc allocates n bytes of simulated device memory and attaches
// it to buf.
func DeviceMalloc(buf *Buffer, n int) error {
	if n <= 0 {
		return cerr.NewRuntime(cerr.AllocationFailure, "device_malloc: non-positive size")
	}
	buf.Device = &Handle{mem: make([]byte, n)}
	return nil
}

// DeviceFree releases buf's device allocation.
func DeviceFree(buf *Buffer) {
	buf.Device = nil
}

// CopyToDevice copies buf's host memory to its device allocation, split
// into contiguous chunks run concurrently via errgroup (the same pattern
// the lowering pipeline uses for independent pipelines), collecting the
// first chunk's error if any.
func CopyToDevice(ctx context.Context, buf *Buffer) error {
	if buf.Device == nil {
		return cerr.NewRuntime(cerr.DeviceError, "copy_to_device: no device allocation")
	}
	chunkBytes, numChunks := buf.contiguousChunks()
	g, _ := errgroup.WithContext(ctx)
	for c := 0; c < numChunks; c++ {
		off := c * chunkBytes
		g.Go(func() error {
			if off+chunkBytes > len(buf.Host) || off+chunkBytes > len(buf.Device.mem) {
				return cerr.NewRuntime(cerr.BufferPrecondition, "copy_to_device: chunk out of range")
			}
			copy(buf.Device.mem[off:off+chunkBytes], buf.Host[off:off+chunkBytes])
			return nil
		})
	}
	return g.Wait()
}

// CopyToHost copies buf's device allocation back to its host memory,
// chunked the same way as CopyToDevice.
func CopyToHost(ctx context.Context, buf *Buffer) error {
	if buf.Device == nil {
		return cerr.NewRuntime(cerr.DeviceError, "copy_to_host: no device allocation")
	}
	chunkBytes, numChunks := buf.contiguousChunks()
	g, _ := errgroup.WithContext(ctx)
	for c := 0; c < numChunks; c++ {
		off := c * chunkBytes
		g.Go(func() error {
			if off+chunkBytes > len(buf.Host) || off+chunkBytes > len(buf.Device.mem) {
				return cerr.NewRuntime(cerr.BufferPrecondition, "copy_to_host: chunk out of range")
			}
			copy(buf.Host[off:off+chunkBytes], buf.Device.mem[off:off+chunkBytes])
			return nil
		})
	}
	return g.Wait()
}

// DeviceSync blocks until all outstanding device work has completed. The
// simulated device executes synchronously, so this is a no-op placeholder
// for the real driver's cuCtxSynchronize.
func DeviceSync() error { return nil }

// Kernel is an emitted device entry point, invoked by DeviceRun with its
// launch geometry and argument buffers.
type Kernel func(blocks, threads [3]int, sharedBytes int, args []*Buffer) error

// DeviceRun runs entry with the given launch geometry, applying the
// consistency protocol: each arg with HostDirty is copied to the device
// first (and cleared), then entry runs, then every arg is marked
// DeviceDirty (the kernel is assumed to write all of its buffer args,
// matching the conservative "after a device kernel that writes" rule).
func DeviceRun(ctx context.Context, entry Kernel, blocks, threads [3]int, sharedBytes int, args []*Buffer) error {
	if err := DefaultContext.Acquire(); err != nil {
		return err
	}
	defer DefaultContext.Release()

	for _, a := range args {
		if a.HostDirty {
			if err := CopyToDevice(ctx, a); err != nil {
				return err
			}
			a.HostDirty = false
		}
	}

	if err := entry(blocks, threads, sharedBytes, args); err != nil {
		return err
	}

	for _, a := range args {
		a.DeviceDirty = true
	}
	return nil
}

// EnsureHostFresh applies "Before host access: if device_dirty, copy
// device→host and clear" for a single buffer about to be read on the
// host side.
func EnsureHostFresh(ctx context.Context, buf *Buffer) error {
	if !buf.DeviceDirty {
		return nil
	}
	if err := CopyToHost(ctx, buf); err != nil {
		return err
	}
	buf.DeviceDirty = false
	return nil
}
