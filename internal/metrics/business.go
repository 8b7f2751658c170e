package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("reelbridge/business")

	// Conversion metrics
	ConversionsTotal   metric.Int64Counter
	ConversionDuration metric.Float64Histogram

	// Extraction metrics
	ExtractionAttemptsTotal metric.Int64Counter
	ExtractionFallbackTotal metric.Int64Counter

	// Stage metrics (fetch, transcode)
	StageDuration metric.Float64Histogram

	// Chat front end metrics
	ChatRequestsTotal metric.Int64Counter
)

func init() {
	// Instruments must be usable before Init runs, e.g. in tests.
	_ = Init()
}

func Init() error {
	var err error

	ConversionsTotal, err = meter.Int64Counter(
		"conversion.total",
		metric.WithDescription("Total number of conversions by result kind"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ConversionDuration, err = meter.Float64Histogram(
		"conversion.duration",
		metric.WithDescription("Duration of the full conversion pipeline"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return err
	}

	ExtractionAttemptsTotal, err = meter.Int64Counter(
		"extraction.attempts.total",
		metric.WithDescription("Extraction strategy attempts by strategy and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExtractionFallbackTotal, err = meter.Int64Counter(
		"extraction.fallback.total",
		metric.WithDescription("Total number of fall-throughs to the next extraction strategy"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	StageDuration, err = meter.Float64Histogram(
		"conversion.stage.duration",
		metric.WithDescription("Duration of individual pipeline stages"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	ChatRequestsTotal, err = meter.Int64Counter(
		"chat.requests.total",
		metric.WithDescription("Chat link submissions by final state"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}
