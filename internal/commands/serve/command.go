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

// Package serve implements the "skillflow serve" command: run the HTTP
// API server over a skills directory.
package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillflow/skillflow/internal/commands/shared"
	"github.com/skillflow/skillflow/internal/config"
	"github.com/skillflow/skillflow/internal/log"
	"github.com/skillflow/skillflow/internal/server"
	"github.com/skillflow/skillflow/internal/tracing"
	"github.com/skillflow/skillflow/pkg/engine"
	"github.com/skillflow/skillflow/pkg/llm"
	"github.com/skillflow/skillflow/pkg/repository"
	"github.com/skillflow/skillflow/pkg/tools"
	"github.com/skillflow/skillflow/pkg/tools/builtin"
)

// NewCommand creates the serve command.
func NewCommand(configPath *string, version string) *cobra.Command {
	var (
		addr      string
		skillsDir string
		adapter   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve loads the skill catalogue from the skills directory and
exposes it over HTTP: listing, execution, resumption, and validation.
Changed skill files are picked up without a restart when watching is
enabled. Metrics are exported in Prometheus format on /metrics.`,
		Example: `  skillflow serve --addr :8080 --skills-dir ./skills
  skillflow serve --adapter "static:ok"   # canned LLM responses, for demos`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if skillsDir != "" {
				cfg.Skills.Dir = skillsDir
			}
			if adapter != "" {
				cfg.LLM.DefaultAdapter = adapter
			}

			logCfg := log.DefaultConfig()
			logCfg.Level = cfg.Log.Level
			logCfg.Format = log.Format(cfg.Log.Format)
			logger := log.New(logCfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			provider, err := tracing.NewProvider(tracing.Config{
				ServiceName:    cfg.Tracing.ServiceName,
				ServiceVersion: version,
				SampleRate:     cfg.Tracing.SampleRate,
				StdoutTrace:    cfg.Tracing.StdoutTrace,
			})
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := provider.Shutdown(shutdownCtx); err != nil {
					logger.Warn("telemetry shutdown failed", log.Error(err))
				}
			}()

			reg := tools.NewRegistry()
			if err := builtin.Register(reg); err != nil {
				return err
			}

			llms := llm.NewRegistry()
			if cfg.LLM.DefaultAdapter != "" {
				built, err := shared.BuildAdapter(cfg.LLM.DefaultAdapter)
				if err != nil {
					return err
				}
				if cfg.LLM.RequestsPerSecond > 0 {
					built = llm.NewRateLimited(built, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
				}
				if err := llms.Register(built); err != nil {
					return err
				}
			}

			store, err := shared.BuildStore(ctx, cfg)
			if err != nil {
				return err
			}
			engine.StartSweeper(ctx, store, 0, logger)

			repo, err := repository.NewFileRepository(cfg.Skills.Dir, logger)
			if err != nil {
				return err
			}
			if cfg.Skills.Watch == nil || *cfg.Skills.Watch {
				go func() {
					if err := repo.Watch(ctx); err != nil && ctx.Err() == nil {
						logger.Warn("skill watcher stopped", log.Error(err))
					}
				}()
			}

			handler := server.NewSkillsHandler(server.SkillsHandlerConfig{
				Repository: repo,
				Tools:      reg,
				LLMs:       llms,
				Store:      store,
				Listener:   provider.Metrics(),
				TTL:        cfg.Store.TTL,
				Logger:     logger,
			})

			router := server.NewRouter(server.RouterConfig{Version: version}, logger)
			handler.RegisterRoutes(router.Mux())
			router.SetMetricsHandler(provider.MetricsHandler())

			logger.Info("starting server",
				"addr", cfg.Server.Addr,
				"skills_dir", cfg.Skills.Dir,
				"store", cfg.Store.Type,
				"adapters", llms.List(),
			)
			return server.New(cfg.Server, router, logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&skillsDir, "skills-dir", "", "Directory to load skills from")
	cmd.Flags().StringVar(&adapter, "adapter", "", "Default LLM adapter spec, e.g. static:<response>")

	return cmd
}
