package extractor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/reelbridge/reelbridge/internal/logger"
	"github.com/reelbridge/reelbridge/internal/metrics"
	"github.com/reelbridge/reelbridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// DefaultTimeout bounds a single strategy attempt.
const DefaultTimeout = 15 * time.Second

// Chain tries strategies in order and returns the first URL produced.
// Each strategy is attempted at most once per Resolve call.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
}

func NewChain(timeout time.Duration, strategies ...Strategy) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chain{
		strategies: strategies,
		timeout:    timeout,
	}
}

// Names returns the strategy names in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

func (c *Chain) Resolve(ctx context.Context, link string) (*ResolvedMedia, error) {
	log := slog.Default().With(logger.WithTraceContext(ctx))
	var attempts []Attempt

	for i, s := range c.strategies {
		if ctx.Err() != nil {
			attempts = append(attempts, Attempt{Strategy: s.Name(), Err: ctx.Err()})
			break
		}

		directURL, err := c.attempt(ctx, s, link)
		if err == nil {
			if i > 0 {
				log.Info("Fallback strategy succeeded",
					"strategy", s.Name(),
					"failed_attempts", len(attempts))
			}
			return &ResolvedMedia{DirectURL: directURL, Strategy: s.Name()}, nil
		}

		attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err})
		if errors.Is(err, ErrUnavailable) {
			log.Debug("Extraction strategy unavailable", "strategy", s.Name(), "error", err)
		} else {
			log.Warn("Extraction strategy failed", "strategy", s.Name(), "error", err)
		}

		if i < len(c.strategies)-1 {
			metrics.ExtractionFallbackTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("from", s.Name())))
		}
	}

	log.Error("All extraction strategies failed", "attempts", len(attempts))
	return nil, &ExtractionError{Attempts: attempts}
}

func (c *Chain) attempt(ctx context.Context, s Strategy, link string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := telemetry.Tracer("extractor").Start(ctx, "extract."+s.Name())
	defer span.End()

	start := time.Now()
	directURL, err := s.Resolve(ctx, link)
	if err == nil && strings.TrimSpace(directURL) == "" {
		err = ErrNoMediaURL
	}

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnavailable):
		outcome = "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	metrics.ExtractionAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", s.Name()),
		attribute.String("outcome", outcome),
	))
	span.SetAttributes(
		attribute.String("strategy", s.Name()),
		attribute.String("outcome", outcome),
		attribute.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return strings.TrimSpace(directURL), nil
}
