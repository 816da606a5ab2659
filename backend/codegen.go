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

package backend

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/klauspost/asmfmt"

	"stencilc/config"
)

// CodegenError wraps a failed external code generator invocation,
// carrying the captured stdout/stderr the way a compile diagnostic would.
type CodegenError struct {
	Target config.Target
	Stderr string
	Err    error
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("backend: codegen for target %s failed: %v\n%s", e.Target, e.Err, e.Stderr)
}
func (e *CodegenError) Unwrap() error { return e.Err }

// Codegen shells out to the external code generator (`go tool
// github.com/gorse-io/goat`) for targets whose back end requires
// C-to-object compilation (GPU texture, NEON). stencilc never links a
// code generator in-process: it writes the back-end-adapted IR's textual
// form to irFile and invokes the tool against it, capturing stdout/stderr
// and surfacing a non-zero exit as a *CodegenError.
type Codegen struct {
	// GoatTarget selects GOAT's target arch flag (-t); defaults to the
	// running GOARCH when empty.
	GoatTarget string
	// ExtraFlags are passed through to the underlying C compiler via
	// repeated -e= flags, for profile-specific compiler flags.
	ExtraFlags []string
}

// Run invokes the code generator against irFile (expected to contain the
// lowered pipeline's C rendering) for target t, writing generated
// artifacts alongside irFile. outDir, if non-empty, overrides the output
// directory (defaults to irFile's directory).
func (c *Codegen) Run(irFile string, t config.Target, outDir string) error {
	if t.Arch != config.ArchARM && !t.HasFeature(config.FeatureCUDA) && !t.HasFeature(config.FeatureOpenCL) && !t.HasFeature(config.FeatureOpenGL) {
		// Pure scalar/host targets never need the external compiler; the
		// Go back end handles them directly.
		return nil
	}

	goBin := filepath.Join(runtime.GOROOT(), "bin", "go")
	absIRFile, err := filepath.Abs(irFile)
	if err != nil {
		return fmt.Errorf("backend: abs path for %s: %w", irFile, err)
	}

	if outDir == "" {
		outDir = filepath.Dir(absIRFile)
	}

	goatTarget := c.GoatTarget
	if goatTarget == "" {
		goatTarget = runtime.GOARCH
	}

	args := []string{"tool", "github.com/gorse-io/goat", absIRFile,
		"-O3",
		"-t", goatTarget,
		"-o", outDir,
	}
	for _, flag := range c.ExtraFlags {
		args = append(args, "-e="+flag)
	}

	cmd := exec.Command(goBin, args...)
	cmd.Env = os.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &CodegenError{Target: t, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// FormatAssembly pretty-prints a Go-assembly fragment produced as a side
// channel when a target requests raw .s output for inspection, using
// asmfmt on GOAT-produced .s files.
func FormatAssembly(src []byte) ([]byte, error) {
	out, err := asmfmt.Format(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("backend: format assembly: %w", err)
	}
	return out, nil
}
