package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/job"
	"reelsmith/internal/jobstore"
	"reelsmith/internal/logs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the job history",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsLogCommand(ctx))
	jobsCmd.AddCommand(newJobsStatusCommand(ctx))
	jobsCmd.AddCommand(newJobsResetStuckCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var states []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStates(states)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *jobstore.Store) error {
				results, err := store.List(cmd.Context(), limit, filter...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, results)
				}
				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						r.JobID,
						statusLabel(stateKind(r.State), colorize) + " " + string(r.State),
						formatSeconds(r.Duration),
						formatWhen(r.StartedAt),
						truncate(r.Artifacts[job.ArtifactFinal], 60),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Job", "State", "Duration", "Started", "Output"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by state (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(func(store *jobstore.Store) error {
				result, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if result == nil {
					return fmt.Errorf("job %s not found", id)
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				renderResult(out, *result, shouldColorize(out))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func newJobsLogCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Print a job's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !logs.ValidLevel(filter.MinLevel) {
				return fmt.Errorf("unknown level %q", filter.MinLevel)
			}
			id := strings.TrimSpace(args[0])
			var path string
			err := ctx.withStore(func(store *jobstore.Store) error {
				result, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if result == nil {
					return fmt.Errorf("job %s not found", id)
				}
				path = result.Artifacts[job.ArtifactLog]
				return nil
			})
			if err != nil {
				return err
			}
			if path == "" {
				return fmt.Errorf("job %s has no log (logging.level was empty when it ran)", id)
			}

			out := cmd.OutOrStdout()
			emit := func(batch []string) {
				if raw {
					for _, line := range batch {
						fmt.Fprintln(out, line)
					}
					return
				}
				for _, entry := range logs.ParseEntries(batch, filter) {
					fmt.Fprintln(out, entry.Format())
				}
			}

			tail, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(tail.Lines)
			if !follow {
				return nil
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			offset := tail.Offset
			for {
				next, err := logs.Tail(runCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				emit(next.Lines)
				offset = next.Offset
				if len(next.Lines) == 0 {
					select {
					case <-runCtx.Done():
						return nil
					case <-time.After(time.Second):
					}
				}
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unchanged")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only show entries from this stage")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}

func newJobsStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts per state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobstore.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				var rows [][]string
				for _, state := range job.States() {
					if count := stats[state]; count > 0 {
						rows = append(rows, []string{string(state), strconv.Itoa(count)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				fmt.Fprint(out, renderTable([]string{"State", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newJobsResetStuckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Mark jobs left mid-pipeline by a crash as failed",
		Long: `Mark every job that is neither done nor failed as failed.

Only run this while no "produce" or "serve" process is working, otherwise
live jobs are marked failed too.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobstore.Store) error {
				count, err := store.MarkInterrupted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d job(s) as failed\n", count)
				return nil
			})
		},
	}
}

func parseStates(values []string) ([]job.State, error) {
	var states []job.State
	var problems []string
	for _, value := range values {
		state, err := job.ParseState(value)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		states = append(states, state)
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return states, nil
}
