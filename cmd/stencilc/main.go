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

// Command stencilc is the driver for the stencil compiler: it parses
// target descriptors, describes pipeline-shaped Go source, lowers the
// built-in example pipeline through the full compile pipeline, and runs
// it against the worker pool and device bridge.
//
// Usage:
//
//	stencilc target x86-64-linux-avx2
//	stencilc describe pipeline.go
//	stencilc build -o out/ --target host
//	stencilc run --width 1024 --height 768
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "stencilc",
		Short:         "Compile and run stencil pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTargetCmd())
	root.AddCommand(newDescribeCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stencilc: %v\n", err)
		os.Exit(1)
	}
}
