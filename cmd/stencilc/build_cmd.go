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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stencilc/backend"
	"stencilc/config"
	"stencilc/lower"
)

func newBuildCmd() *cobra.Command {
	var (
		outDir     string
		targetStr  string
		width      int
		height     int
		goatTarget string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Lower the built-in box blur pipeline and invoke the external code generator",
		Long: "Builds the 3x3 box blur example pipeline, runs it through the full\n" +
			"lowering pipeline, applies the GPU texture and lerp back-end rewrites,\n" +
			"writes the resulting IR's textual form to outDir, and (for targets that\n" +
			"need it) invokes the external C-to-object code generator against it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := resolveTarget(targetStr)
			if err != nil {
				return err
			}

			p, bounds, err := boxBlurPipeline(width, height)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			stmt, err := lower.Lower(p, bounds)
			if err != nil {
				return fmt.Errorf("lower: %w", err)
			}
			stmt, err = backend.RewriteGPUTextures(stmt)
			if err != nil {
				return fmt.Errorf("rewrite gpu textures: %w", err)
			}
			stmt, err = backend.ExpandLerp(stmt)
			if err != nil {
				return fmt.Errorf("expand lerp: %w", err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("build: create %s: %w", outDir, err)
			}
			irFile := filepath.Join(outDir, "blur_y.ir")
			if err := os.WriteFile(irFile, []byte(stmt.String()), 0o644); err != nil {
				return fmt.Errorf("build: write %s: %w", irFile, err)
			}

			gen := &backend.Codegen{GoatTarget: goatTarget}
			if err := gen.Run(irFile, t, outDir); err != nil {
				return fmt.Errorf("codegen: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "built blur_y for target %s -> %s\n", t, irFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "build", "output directory for the lowered IR and generated artifacts")
	cmd.Flags().StringVar(&targetStr, "target", "host", "target descriptor (or \"host\")")
	cmd.Flags().IntVar(&width, "width", 1024, "output region width")
	cmd.Flags().IntVar(&height, "height", 768, "output region height")
	cmd.Flags().StringVar(&goatTarget, "goat-target", "", "override the external generator's -t flag (defaults to GOARCH)")
	return cmd
}

func resolveTarget(s string) (config.Target, error) {
	if s == "" || s == "host" {
		return config.HostTarget()
	}
	return config.ParseTarget(s)
}
