package main

import (
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelsmith/internal/httpapi"
	"reelsmith/internal/job"
	"reelsmith/internal/jobstore"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP job API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			address := strings.TrimSpace(bind)
			if address == "" {
				address = cfg.Paths.APIBind
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, check := range preflight.RunAll(runCtx, cfg) {
				if check.Passed {
					continue
				}
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", check.Name),
					logging.String("detail", check.Detail),
					logging.Bool("optional", check.Optional),
					logging.String(logging.FieldImpact, "jobs depending on this check will fail or degrade"),
					logging.String(logging.FieldErrorHint, "run reelsmith doctor for details"),
				)
			}
			if strings.TrimSpace(cfg.Paths.APIToken) == "" && !isLoopback(address) {
				logging.WarnWithContext(logger, "api exposed without token", "api_unauthenticated",
					logging.String("address", address),
					logging.String(logging.FieldImpact, "anyone who can reach the address can submit jobs"),
					logging.String(logging.FieldErrorHint, "set paths.api_token or REELSMITH_API_TOKEN"),
				)
			}

			return ctx.withStore(func(store *jobstore.Store) error {
				orch, err := pipeline.FromConfig(cfg, store, logger)
				if err != nil {
					return err
				}
				server, err := httpapi.New(httpapi.Options{
					Runner:      orch,
					Store:       store,
					Defaults:    job.DefaultsFromConfig(cfg),
					Parallelism: cfg.Workflow.ParallelJobs,
					Token:       cfg.Paths.APIToken,
					Logger:      logger,
				})
				if err != nil {
					return err
				}
				return server.ListenAndServe(runCtx, address)
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: paths.api_bind)")
	return cmd
}

func isLoopback(address string) bool {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
