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

// Package list implements the "skillflow list" command: show the skill
// catalogue loaded from the configured skills directory.
package list

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillflow/skillflow/internal/commands/shared"
	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/internal/log"
	"github.com/skillflow/skillflow/pkg/repository"
)

type skillRow struct {
	ID          string   `json:"id"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Intents     []string `json:"intents,omitempty"`
	Steps       int      `json:"steps"`
}

// NewCommand creates the list command.
func NewCommand(configPath *string) *cobra.Command {
	var (
		skillsDir string
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List skills in the skills directory",
		Example:      `  skillflow list --skills-dir ./skills`,
		Args:         cobra.NoArgs,
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

			repo, err := repository.NewFileRepository(cfg.Skills.Dir, logger)
			if err != nil {
				return err
			}

			rows := []skillRow{}
			for _, sk := range repo.List() {
				rows = append(rows, skillRow{
					ID:          sk.ID,
					Version:     sk.Version,
					Description: sk.Description,
					Intents:     sk.Intents,
					Steps:       len(sk.Steps),
				})
			}

			if jsonOut {
				return shared.PrintJSON(rows)
			}

			if len(rows) == 0 {
				fmt.Printf("no skills found in %s\n", cfg.Skills.Dir)
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tSTEPS\tDESCRIPTION")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", row.ID, row.Version, row.Steps, row.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&skillsDir, "skills-dir", "", "Directory to load skills from")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the catalogue as JSON")

	return cmd
}
