package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Strategy resolves a public post link into a direct media URL.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, link string) (string, error)
}

var (
	// ErrUnavailable means the strategy cannot run in this environment
	// (missing binary, missing credentials).
	ErrUnavailable = errors.New("strategy unavailable")
	ErrNoMediaURL  = errors.New("no media url in response")

	ErrRateLimited  = errors.New("rate limited")
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidURL   = errors.New("invalid URL")

	ErrExtractionFailed = errors.New("all extraction strategies failed")
)

// ResolvedMedia is a direct media URL plus the strategy that produced it.
type ResolvedMedia struct {
	DirectURL string
	Strategy  string
}

// Attempt records one strategy's failure.
type Attempt struct {
	Strategy string
	Err      error
}

// ExtractionError is returned when every strategy failed.
type ExtractionError struct {
	Attempts []Attempt
}

func (e *ExtractionError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrExtractionFailed.Error()
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("%s (%s)", ErrExtractionFailed, strings.Join(parts, "; "))
}

func (e *ExtractionError) Unwrap() error {
	return ErrExtractionFailed
}
