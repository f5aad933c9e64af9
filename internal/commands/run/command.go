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

// Package run implements the "skillflow run" command: execute a skill
// from a Markdown file or the configured skills directory.
package run

import (
	"github.com/spf13/cobra"

	"github.com/skillflow/skillflow/internal/commands/shared"
	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/internal/log"
	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/tools"
	"github.com/skillflow/skillflow/pkg/tools/builtin"
)

// NewCommand creates the run command.
func NewCommand(configPath *string) *cobra.Command {
	var (
		inputPairs []string
		inputFile  string
		adapter    string
		skillsDir  string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "run <skill.md | skill-id>",
		Short: "Execute a skill",
		Long: `Run executes a skill to completion, or until it suspends on an
await step. Suspended executions print an execution id that can be
passed to "skillflow resume".

The argument is either a path to a Markdown skill document or a skill
id resolved against the skills directory.`,
		Example: `  # Run a skill file with inputs
  skillflow run greeter.md --input name=Ada

  # Run with JSON inputs from a file and a canned LLM response
  skillflow run reviewer --input-file inputs.json --adapter "static:looks good"`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if skillsDir != "" {
				cfg.Skills.Dir = skillsDir
			}
			logger := log.New(log.FromEnv())

			sk, err := shared.LoadSkill(args[0], cfg.Skills.Dir, logger)
			if err != nil {
				return err
			}

			inputs, err := shared.CollectInputs(inputPairs, inputFile)
			if err != nil {
				return err
			}

			provider, err := shared.BuildAdapter(adapter)
			if err != nil {
				return err
			}
			store, err := shared.BuildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			reg := tools.NewRegistry()
			if err := builtin.Register(reg); err != nil {
				return err
			}

			eng := engine.New(reg, provider).
				WithStore(store).
				WithLogger(logger).
				WithSnapshotTTL(cfg.Store.TTL)

			result, err := eng.Execute(cmd.Context(), sk, inputs)
			if err != nil {
				return err
			}
			return shared.PrintResult(result, jsonOut)
		},
	}

	cmd.Flags().StringArrayVar(&inputPairs, "input", nil, "Input as key=value (repeatable; JSON values keep their type)")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "JSON file with inputs (\"-\" for stdin)")
	cmd.Flags().StringVar(&adapter, "adapter", "", "LLM adapter spec, e.g. static:<response>")
	cmd.Flags().StringVar(&skillsDir, "skills-dir", "", "Directory to resolve skill ids against")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")

	return cmd
}
