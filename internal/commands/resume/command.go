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

// Package resume implements the "skillflow resume" command: feed
// answers to a suspended execution and continue it.
package resume

import (
	"github.com/spf13/cobra"

	"github.com/skillflow/skillflow/internal/commands/shared"
	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/internal/log"
	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/repository"
	"github.com/skillflow/skillflow/pkg/tools"
	"github.com/skillflow/skillflow/pkg/tools/builtin"
)

// NewCommand creates the resume command.
func NewCommand(configPath *string) *cobra.Command {
	var (
		inputPairs []string
		inputFile  string
		adapter    string
		skillsDir  string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "resume <execution-id>",
		Short: "Resume a suspended execution",
		Long: `Resume continues an execution that is waiting on an await step.
The inputs must satisfy the await step's input schema. Resuming
requires a durable snapshot store (sqlite or redis); executions
suspended in one process cannot be resumed from another with the
in-memory store.`,
		Example: `  skillflow resume 2f1c3c1e-8a7b-4a4e-9c3a-1d2e3f4a5b6c --input approved=true`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			executionID := args[0]

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if skillsDir != "" {
				cfg.Skills.Dir = skillsDir
			}
			logger := log.New(log.FromEnv())

			store, err := shared.BuildStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			snap, err := store.Find(cmd.Context(), executionID)
			if err != nil {
				return err
			}

			repo, err := repository.NewFileRepository(cfg.Skills.Dir, logger)
			if err != nil {
				return err
			}
			sk, err := repo.Get(snap.SkillID)
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

			reg := tools.NewRegistry()
			if err := builtin.Register(reg); err != nil {
				return err
			}

			eng := engine.New(reg, provider).
				WithStore(store).
				WithLogger(logger).
				WithSnapshotTTL(cfg.Store.TTL)

			result, err := eng.Resume(cmd.Context(), sk, executionID, inputs)
			if err != nil {
				return err
			}
			return shared.PrintResult(result, jsonOut)
		},
	}

	cmd.Flags().StringArrayVar(&inputPairs, "input", nil, "Await input as key=value (repeatable)")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "JSON file with await inputs (\"-\" for stdin)")
	cmd.Flags().StringVar(&adapter, "adapter", "", "LLM adapter spec, e.g. static:<response>")
	cmd.Flags().StringVar(&skillsDir, "skills-dir", "", "Directory to resolve skill ids against")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")

	return cmd
}
