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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillflow/skillflow/internal/commands/list"
	"github.com/skillflow/skillflow/internal/commands/resume"
	"github.com/skillflow/skillflow/internal/commands/run"
	"github.com/skillflow/skillflow/internal/commands/serve"
	"github.com/skillflow/skillflow/internal/commands/validate"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "skillflow",
		Short: "Run Markdown-authored skills",
		Long: `skillflow executes declarative skills: Markdown documents whose
steps call tools, prompt an LLM, render templates, or pause for human
input. Suspended executions survive restarts and resume where they
left off.`,
		Version:       version,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"skillflow %s (commit: %s, built: %s)\n", version, commit, buildDate))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/skillflow/config.yaml)")

	rootCmd.AddCommand(
		run.NewCommand(&configPath),
		resume.NewCommand(&configPath),
		validate.NewCommand(),
		list.NewCommand(&configPath),
		serve.NewCommand(&configPath, version),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
