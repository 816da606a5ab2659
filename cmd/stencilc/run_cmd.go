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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stencilc/runtime/device"
	"stencilc/runtime/workpool"
)

func newRunCmd() *cobra.Command {
	var (
		width, height int
		numWorkers    int
		onDevice      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the box blur over a synthetic image, on the host pool or the simulated device",
		Long: "Generates a synthetic gray8 image, runs a 3x3 box blur over it either\n" +
			"row-parallel on the worker pool or through the simulated device bridge's\n" +
			"copy/kernel/copy round trip, and reports a checksum of the result.",
		RunE: func(cmd *cobra.Command, args []string) error {
			img := syntheticImage(width, height)
			var out []byte
			if onDevice {
				result, err := runOnDevice(img, width, height)
				if err != nil {
					return fmt.Errorf("run: device: %w", err)
				}
				out = result
			} else {
				out = runOnPool(img, width, height, numWorkers)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "blurred %dx%d image, checksum=%d\n", width, height, checksum(out))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 256, "image width")
	cmd.Flags().IntVar(&height, "height", 256, "image height")
	cmd.Flags().IntVar(&numWorkers, "workers", 0, "worker pool size (0 selects the default)")
	cmd.Flags().BoolVar(&onDevice, "device", false, "run through the simulated device bridge instead of the host pool")
	return cmd
}

func syntheticImage(w, h int) []byte {
	img := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img[y*w+x] = byte((x*7 + y*13) % 251)
		}
	}
	return img
}

func checksum(buf []byte) uint64 {
	var sum uint64
	for _, b := range buf {
		sum += uint64(b)
	}
	return sum
}

// boxBlurRow writes row y of a 3x3 box blur of img (w x h, clamped at the
// edges) into out.
func boxBlurRow(img []byte, w, h, y int, out []byte) {
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	for x := 0; x < w; x++ {
		var sum int
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				sum += int(img[clamp(y+dy, 0, h-1)*w+clamp(x+dx, 0, w-1)])
			}
		}
		out[y*w+x] = byte(sum / 9)
	}
}

// runOnPool runs the blur with one worker-pool job per output row.
func runOnPool(img []byte, w, h, numWorkers int) []byte {
	pool := workpool.New(numWorkers)
	defer pool.Close()

	out := make([]byte, w*h)
	pool.ParallelFor(h, out, func(y int, closure any) {
		boxBlurRow(img, w, h, y, closure.([]byte))
	})
	return out
}

// runOnDevice runs the blur through the simulated device bridge: copy the
// host image in, run the blur as a device "kernel", copy the result back.
func runOnDevice(img []byte, w, h int) ([]byte, error) {
	in := &device.Buffer{Host: img, Extent: [4]int{w, h, 0, 0}, Stride: [4]int{1, w, 0, 0}, ElemSize: 1, HostDirty: true}
	if err := device.DeviceMalloc(in, len(img)); err != nil {
		return nil, err
	}
	defer device.DeviceFree(in)

	out := &device.Buffer{Host: make([]byte, w*h), Extent: [4]int{w, h, 0, 0}, Stride: [4]int{1, w, 0, 0}, ElemSize: 1}
	if err := device.DeviceMalloc(out, w*h); err != nil {
		return nil, err
	}
	defer device.DeviceFree(out)

	kernel := func(blocks, threads [3]int, sharedBytes int, args []*device.Buffer) error {
		src, dst := args[0], args[1]
		for y := 0; y < h; y++ {
			boxBlurRow(src.Device.Bytes(), w, h, y, dst.Device.Bytes())
		}
		return nil
	}

	ctx := context.Background()
	if err := device.DeviceRun(ctx, kernel, [3]int{1, 1, 1}, [3]int{1, 1, 1}, 0, []*device.Buffer{in, out}); err != nil {
		return nil, err
	}
	if err := device.EnsureHostFresh(ctx, out); err != nil {
		return nil, err
	}
	return out.Host, nil
}
