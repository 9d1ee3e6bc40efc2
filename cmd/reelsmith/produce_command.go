package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/job"
	"reelsmith/internal/jobstore"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
)

type produceFlags struct {
	script        string
	scriptFile    string
	jobFile       string
	id            string
	keywords      []string
	output        string
	voice         string
	mood          string
	subtitleStyle string
	background    string
	noMusic       bool
	noSubtitles   bool
	keepScratch   bool
	jsonOutput    bool
}

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var flags produceFlags

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Produce one video in the foreground",
		Long: `Produce one video from a narration script.

The script comes from --script, --script-file or a YAML job file (--job).
Flags override values from the job file, which override configuration
defaults. The command exits non-zero when the job fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := buildProduceRequest(cmd, flags)
			if err != nil {
				return err
			}
			j, err := job.New(req, job.DefaultsFromConfig(cfg))
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var result job.Result
			err = ctx.withStore(func(store *jobstore.Store) error {
				runCfg := *cfg
				if flags.keepScratch {
					runCfg.Workflow.KeepScratch = true
				}
				orch, err := pipeline.FromConfig(&runCfg, store, logger)
				if err != nil {
					return err
				}
				result = orch.Run(runCtx, j)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				renderResult(out, result, shouldColorize(out))
			}
			if !result.Success {
				if note, ok := result.FatalError(); ok {
					if note.Kind == services.KindStageAborted {
						return context.Canceled
					}
					return fmt.Errorf("job %s failed in %s: %s", result.JobID, note.Stage, note.Message)
				}
				return fmt.Errorf("job %s failed", result.JobID)
			}
			return nil
		},
	}

	bindProduceFlags(cmd, &flags)
	return cmd
}

func bindProduceFlags(cmd *cobra.Command, flags *produceFlags) {
	fs := cmd.Flags()
	fs.StringVar(&flags.script, "script", "", "Narration script text")
	fs.StringVar(&flags.scriptFile, "script-file", "", "Read the narration script from a text or markdown file")
	fs.StringVar(&flags.jobFile, "job", "", "YAML job file")
	fs.StringVar(&flags.id, "id", "", "Job identifier (default: random UUID)")
	fs.StringSliceVar(&flags.keywords, "keywords", nil, "Background search keywords, comma separated")
	fs.StringVarP(&flags.output, "output", "o", "", "Output directory (default: paths.output_dir)")
	fs.StringVar(&flags.voice, "voice", "", "Speech voice ID")
	fs.StringVar(&flags.mood, "mood", "", fmt.Sprintf("Music mood (%s)", strings.Join(config.MusicMoods, ", ")))
	fs.StringVar(&flags.subtitleStyle, "subtitle-style", "", fmt.Sprintf("Subtitle style (%s)", strings.Join(config.SubtitleStyles, ", ")))
	fs.StringVar(&flags.background, "background", "", fmt.Sprintf("Background style (%s)", strings.Join(config.BackgroundStyles, ", ")))
	fs.BoolVar(&flags.noMusic, "no-music", false, "Skip background music")
	fs.BoolVar(&flags.noSubtitles, "no-subtitles", false, "Skip burned-in subtitles")
	fs.BoolVar(&flags.keepScratch, "keep-scratch", false, "Keep intermediate files for inspection")
	fs.BoolVar(&flags.jsonOutput, "json", false, "Print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("script", "script-file")
}

func buildProduceRequest(cmd *cobra.Command, flags produceFlags) (job.Request, error) {
	var req job.Request
	if path := strings.TrimSpace(flags.jobFile); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return job.Request{}, fmt.Errorf("resolve job file: %w", err)
		}
		req, err = job.LoadRequest(expanded)
		if err != nil {
			return job.Request{}, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("script") {
		req.Script = flags.script
		req.ScriptFile = ""
	}
	if changed("script-file") {
		expanded, err := config.ExpandPath(flags.scriptFile)
		if err != nil {
			return job.Request{}, fmt.Errorf("resolve script file: %w", err)
		}
		req.ScriptFile = expanded
		req.Script = ""
	}
	if changed("id") {
		req.ID = flags.id
	}
	if changed("keywords") {
		req.Keywords = flags.keywords
	}
	if changed("output") {
		expanded, err := config.ExpandPath(flags.output)
		if err != nil {
			return job.Request{}, fmt.Errorf("resolve output dir: %w", err)
		}
		req.OutputDir = expanded
	}
	if changed("voice") {
		req.Voice = flags.voice
	}
	if changed("mood") {
		req.MusicMood = flags.mood
	}
	if changed("subtitle-style") {
		req.SubtitleStyle = flags.subtitleStyle
	}
	if changed("background") {
		req.BackgroundStyle = flags.background
	}
	if flags.noMusic {
		off := false
		req.Music = &off
	}
	if flags.noSubtitles {
		off := false
		req.Subtitles = &off
	}

	if strings.TrimSpace(req.Script) == "" && strings.TrimSpace(req.ScriptFile) == "" {
		return job.Request{}, errors.New("a script is required: use --script, --script-file or --job")
	}
	return req, nil
}
