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

	"github.com/spf13/cobra"

	"stencilc/config"
)

func newTargetCmd() *cobra.Command {
	var showHost bool
	cmd := &cobra.Command{
		Use:   "target [descriptor]",
		Short: "Parse a target descriptor and print its canonical form",
		Long: "Parses a target descriptor of the form arch-bits-os[-feature]* (or the\n" +
			"\"host\" token) and prints it back in its canonical string form, proving\n" +
			"the round-trip parse(to_string(t)) == t holds for the given input.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showHost {
				t, err := config.HostTarget()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("target: descriptor argument required (or pass --host)")
			}
			t, err := config.ParseTarget(args[0])
			if err != nil {
				return err
			}
			round, err := config.ParseTarget(t.String())
			if err != nil {
				return err
			}
			if !round.Equal(t) {
				return fmt.Errorf("target: round-trip mismatch: %s -> %s -> %s", args[0], t, round)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHost, "host", false, "print the autodetected host target instead of parsing an argument")
	return cmd
}
