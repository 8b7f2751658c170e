package converter

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelbridge/reelbridge/internal/artifacts"
	"github.com/reelbridge/reelbridge/internal/errors"
	"github.com/reelbridge/reelbridge/internal/logger"
	"github.com/reelbridge/reelbridge/internal/metrics"
	"github.com/reelbridge/reelbridge/internal/services/extractor"
	"github.com/reelbridge/reelbridge/internal/services/fetcher"
	"github.com/reelbridge/reelbridge/internal/services/transcoder"
	"github.com/reelbridge/reelbridge/internal/telemetry"
	"github.com/reelbridge/reelbridge/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OutputFilename is the name suggested to clients for the converted audio.
const OutputFilename = "reel_audio.mp3"

type Resolver interface {
	Resolve(ctx context.Context, link string) (*extractor.ResolvedMedia, error)
}

type Downloader interface {
	Fetch(ctx context.Context, directURL, destPath string) error
}

type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath, bitrate string) error
}

// Request is a single conversion job.
type Request struct {
	SourceLink string
	RequestID  string
}

// Result is a successful conversion.
type Result struct {
	Audio    []byte
	Filename string
	Strategy string
}

// Service runs the resolve, fetch, transcode pipeline for one link.
type Service struct {
	resolver   Resolver
	downloader Downloader
	transcoder Transcoder
	workspace  *artifacts.Workspace
	bitrate    string
}

func NewService(resolver Resolver, downloader Downloader, tc Transcoder, workspace *artifacts.Workspace, bitrate string) *Service {
	if bitrate == "" {
		bitrate = transcoder.DefaultBitrate
	}
	return &Service{
		resolver:   resolver,
		downloader: downloader,
		transcoder: tc,
		workspace:  workspace,
		bitrate:    bitrate,
	}
}

// Convert turns a post link into MP3 bytes. Errors are always *errors.AppError.
// Temporary files are removed before Convert returns, whatever the outcome.
func (s *Service) Convert(ctx context.Context, req Request) (result *Result, err error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	start := time.Now()
	ctx, span := telemetry.Tracer("converter").Start(ctx, "convert",
		trace.WithAttributes(attribute.String("request_id", req.RequestID)))
	defer span.End()

	log := slog.Default().With(logger.WithTraceContext(ctx), "request_id", req.RequestID)

	defer func() {
		kind := "ok"
		if err != nil {
			appErr := errors.FromError(err)
			err = appErr
			kind = string(appErr.Type)
			span.RecordError(appErr)
			span.SetStatus(codes.Error, appErr.Detail())
			log.Error("Conversion failed", "kind", kind, "error", appErr.Err)
		} else {
			log.Info("Conversion completed",
				"strategy", result.Strategy,
				"bytes", len(result.Audio),
				"duration_ms", time.Since(start).Milliseconds())
		}
		attrs := metric.WithAttributes(attribute.String("kind", kind))
		metrics.ConversionsTotal.Add(ctx, 1, attrs)
		metrics.ConversionDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	link := req.SourceLink
	if strings.TrimSpace(link) == "" {
		return nil, errors.NewInvalidLinkError("URL is required", "URL_REQUIRED")
	}
	if !validation.IsInstagramLink(link) {
		return nil, errors.NewInvalidLinkError("Invalid Instagram URL", "INVALID_URL")
	}

	media, err := s.resolve(ctx, link)
	if err != nil {
		return nil, errors.NewResolutionError(err)
	}
	log.Info("Resolved media URL", "strategy", media.Strategy)

	scope := s.workspace.NewScope(req.RequestID)
	defer func() {
		if relErr := scope.Release(ctx); relErr != nil {
			log.Warn("Cleanup of temporary artifacts incomplete", "error", relErr)
		}
	}()

	video, err := scope.Acquire(artifacts.KindVideo)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := s.fetch(ctx, media.DirectURL, video.Path); err != nil {
		var fetchErr *fetcher.FetchError
		if stderrors.As(err, &fetchErr) && fetchErr.Kind == fetcher.KindTimeout {
			return nil, errors.NewDownloadTimeoutError(err)
		}
		return nil, errors.NewDownloadError(err)
	}

	audio, err := scope.Acquire(artifacts.KindAudio)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := s.transcode(ctx, video.Path, audio.Path); err != nil {
		var tErr *transcoder.TranscodeError
		if stderrors.As(err, &tErr) && tErr.Kind == transcoder.KindEngineMissing {
			return nil, errors.NewEngineMissingError(err)
		}
		return nil, errors.NewTranscodeError(err)
	}

	data, err := os.ReadFile(audio.Path)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("read audio: %w", err))
	}

	return &Result{
		Audio:    data,
		Filename: OutputFilename,
		Strategy: media.Strategy,
	}, nil
}

func (s *Service) resolve(ctx context.Context, link string) (*extractor.ResolvedMedia, error) {
	ctx, span := telemetry.Tracer("converter").Start(ctx, "convert.extract")
	defer span.End()

	media, err := s.resolver.Resolve(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("strategy", media.Strategy))
	return media, nil
}

func (s *Service) fetch(ctx context.Context, directURL, destPath string) error {
	ctx, span := telemetry.Tracer("converter").Start(ctx, "convert.fetch")
	defer span.End()
	defer recordStage(ctx, "fetch", time.Now())

	if err := s.downloader.Fetch(ctx, directURL, destPath); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if info, err := os.Stat(destPath); err == nil {
		span.SetAttributes(attribute.Int64("bytes", info.Size()))
	}
	return nil
}

func (s *Service) transcode(ctx context.Context, inputPath, outputPath string) error {
	ctx, span := telemetry.Tracer("converter").Start(ctx, "convert.transcode",
		trace.WithAttributes(attribute.String("bitrate", s.bitrate)))
	defer span.End()
	defer recordStage(ctx, "transcode", time.Now())

	if err := s.transcoder.Transcode(ctx, inputPath, outputPath, s.bitrate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func recordStage(ctx context.Context, stage string, start time.Time) {
	metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}
