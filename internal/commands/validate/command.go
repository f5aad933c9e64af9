// Copyright 2026 Skillflow Authors
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

// Package validate implements the "skillflow validate" command: run the
// static validator against a skill document without executing it.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillflow/skillflow/internal/commands/shared"
	"github.com/skillflow/skillflow/pkg/tools"
	"github.com/skillflow/skillflow/pkg/tools/builtin"
	"github.com/skillflow/skillflow/pkg/validate"
)

// NewCommand creates the validate command.
func NewCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "validate <skill.md>",
		Short: "Validate a skill document",
		Long: `Validate parses a skill document and checks it for structural,
schema, scope, and tool errors without executing any steps. The exit
code is non-zero when the document has errors.`,
		Example:      `  skillflow validate skills/greeter.md`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read skill file: %w", err)
			}

			reg := tools.NewRegistry()
			if err := builtin.Register(reg); err != nil {
				return err
			}

			report := validate.New(reg).ValidateSource(string(data))

			if jsonOut {
				if err := shared.PrintJSON(report); err != nil {
					return err
				}
			} else {
				fmt.Println(report.Summary)
				for _, issue := range report.Issues {
					loc := ""
					if issue.Line > 0 {
						loc = fmt.Sprintf(" (line %d)", issue.Line)
					}
					fmt.Printf("  [%s] %s: %s%s\n", issue.Level, issue.Category, issue.Message, loc)
				}
			}

			if !report.Valid {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")

	return cmd
}
