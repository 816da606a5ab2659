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
	"testing"

	"stencilc/config"
)

func TestCodegenRunSkipsPureScalarTargets(t *testing.T) {
	c := &Codegen{}
	t1 := config.Target{Arch: config.ArchX86, Bits: 64, OS: config.OSLinux, Features: map[config.Feature]bool{}}
	if err := c.Run("/nonexistent/path.c", t1, ""); err != nil {
		t.Errorf("Run on a pure scalar target should skip invoking the external generator, got %v", err)
	}
}

func TestCodegenErrorUnwraps(t *testing.T) {
	inner := errSentinel{}
	ce := &CodegenError{Err: inner}
	if ce.Unwrap() != inner {
		t.Error("CodegenError.Unwrap should return the wrapped error")
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "sentinel" }
