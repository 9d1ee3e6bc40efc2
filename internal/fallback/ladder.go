package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// ErrNoAsset reports that a strategy ran cleanly but produced nothing.
var ErrNoAsset = errors.New("no asset")

// Strategy is one rung of a ladder.
type Strategy[T any] struct {
	Name    string
	Resolve func(ctx context.Context) (T, error)
}

// Ladder is an ordered list of strategies for one resource request.
type Ladder[T any] struct {
	Name       string
	Strategies []Strategy[T]
}

// Attempt records the result of invoking one strategy.
type Attempt struct {
	Strategy string        `json:"strategy"`
	Err      string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Outcome is the result of a successful resolution.
type Outcome[T any] struct {
	Value    T
	Strategy string
	// Index is the zero-based position of the winning strategy.
	Index    int
	Attempts []Attempt
}

// Degraded reports whether a strategy other than the first one won.
func (o Outcome[T]) Degraded() bool {
	return o.Index > 0
}

// Resolver runs ladders and logs each decision.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a resolver. A nil logger discards output.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "fallback")}
}

// Resolve runs ladder without logging.
func Resolve[T any](ctx context.Context, ladder Ladder[T]) (Outcome[T], error) {
	return ResolveWith(ctx, nil, ladder)
}

// ResolveWith runs ladder, logging through r when it is non-nil.
func ResolveWith[T any](ctx context.Context, r *Resolver, ladder Ladder[T]) (Outcome[T], error) {
	var (
		zero     Outcome[T]
		attempts []Attempt
		failures []error
	)
	logger := logging.NewNop()
	if r != nil {
		logger = logging.WithContext(ctx, r.logger)
	}
	stage, _ := services.StageFromContext(ctx)

	if len(ladder.Strategies) == 0 {
		return zero, services.Wrap(services.ErrInvalidArgument, stage, ladder.Name, "ladder has no strategies", nil)
	}

	for idx, strategy := range ladder.Strategies {
		if err := services.FromContext(ctx, stage); err != nil {
			return zero, services.Wrap(services.ErrStageAborted, stage, ladder.Name,
				fmt.Sprintf("cancelled before %s", strategy.Name), err)
		}
		if strategy.Resolve == nil {
			attempts = append(attempts, Attempt{Strategy: strategy.Name, Err: "strategy not configured"})
			failures = append(failures, fmt.Errorf("%s: %w", strategy.Name, ErrNoAsset))
			continue
		}

		started := time.Now()
		value, err := strategy.Resolve(ctx)
		attempt := Attempt{Strategy: strategy.Name, Elapsed: time.Since(started)}
		if err == nil {
			attempts = append(attempts, attempt)
			logger.Info("ladder resolved",
				logging.Args(append(logging.DecisionAttrs(ladder.Name, strategy.Name, decisionReason(idx)),
					logging.String(logging.FieldEventType, "ladder_resolved"),
					logging.Int("rung", idx),
				)...)...)
			return Outcome[T]{Value: value, Strategy: strategy.Name, Index: idx, Attempts: attempts}, nil
		}

		if services.Aborted(err) || ctx.Err() != nil {
			return zero, services.Wrap(services.ErrStageAborted, stage, ladder.Name,
				fmt.Sprintf("cancelled during %s", strategy.Name), err)
		}

		attempt.Err = err.Error()
		attempts = append(attempts, attempt)
		failures = append(failures, fmt.Errorf("%s: %w", strategy.Name, err))
		logger.Debug("ladder strategy failed",
			logging.String("ladder", ladder.Name),
			logging.String("strategy", strategy.Name),
			logging.Error(err),
		)
	}

	names := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		names = append(names, attempt.Strategy)
	}
	logging.WarnWithContext(logger, "ladder exhausted", "ladder_exhausted",
		logging.String("ladder", ladder.Name),
		logging.String("tried", strings.Join(names, ",")),
		logging.String(logging.FieldErrorHint, "check provider credentials and media engine logs"),
		logging.String(logging.FieldImpact, "resource unavailable for this stage"),
	)
	return zero, services.Wrap(services.ErrResourceUnavailable, stage, ladder.Name,
		fmt.Sprintf("all %d strategies failed", len(ladder.Strategies)), errors.Join(failures...))
}

func decisionReason(idx int) string {
	if idx == 0 {
		return "preferred strategy succeeded"
	}
	return fmt.Sprintf("fell back after %d failed strategies", idx)
}
