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
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/spf13/cobra"
)

// pipelineFunc is one top-level function in a scanned source file that
// looks like it defines or schedules a pipeline stage: it calls
// funcs.New, schedule.New, or a *Func/*Schedule method somewhere in its
// body.
type pipelineFunc struct {
	Name       string
	DefinesVia []string // "funcs.New", "schedule.New", etc. seen in the body
	Line       int
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <file.go>",
		Short: "List the pipeline-defining functions in a Go source file",
		Long: "Parses a Go source file with go/parser and reports every top-level\n" +
			"function whose body references funcs.New or schedule.New, along with\n" +
			"the package-qualified calls it makes. This is a read-only lint/describe\n" +
			"tool: it never evaluates the file, only reports its shape.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			funcsFound, err := describeFile(args[0])
			if err != nil {
				return err
			}
			if len(funcsFound) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pipeline-defining functions found")
				return nil
			}
			for _, f := range funcsFound {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d %s calls=%v\n", args[0], f.Line, f.Name, f.DefinesVia)
			}
			return nil
		},
	}
	return cmd
}

func describeFile(path string) ([]pipelineFunc, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("describe: parse %s: %w", path, err)
	}

	var out []pipelineFunc
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		calls := collectQualifiedCalls(fn.Body)
		if !hasPipelineCall(calls) {
			continue
		}
		out = append(out, pipelineFunc{
			Name:       fn.Name.Name,
			DefinesVia: calls,
			Line:       fset.Position(fn.Pos()).Line,
		})
	}
	return out, nil
}

// collectQualifiedCalls walks body and returns every "pkg.Func"-shaped
// call expression it finds, in source order, deduplicated.
func collectQualifiedCalls(body *ast.BlockStmt) []string {
	seen := map[string]bool{}
	var out []string
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pkg, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		qualified := pkg.Name + "." + sel.Sel.Name
		if !seen[qualified] {
			seen[qualified] = true
			out = append(out, qualified)
		}
		return true
	})
	return out
}

func hasPipelineCall(calls []string) bool {
	for _, c := range calls {
		if c == "funcs.New" || c == "schedule.New" {
			return true
		}
	}
	return false
}
