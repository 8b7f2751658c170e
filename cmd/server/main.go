package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/reelbridge/reelbridge/internal/api"
	"github.com/reelbridge/reelbridge/internal/artifacts"
	"github.com/reelbridge/reelbridge/internal/bot"
	"github.com/reelbridge/reelbridge/internal/config"
	"github.com/reelbridge/reelbridge/internal/httpclient"
	"github.com/reelbridge/reelbridge/internal/logger"
	"github.com/reelbridge/reelbridge/internal/metrics"
	"github.com/reelbridge/reelbridge/internal/sentry"
	"github.com/reelbridge/reelbridge/internal/services/converter"
	"github.com/reelbridge/reelbridge/internal/services/extractor"
	"github.com/reelbridge/reelbridge/internal/services/fetcher"
	"github.com/reelbridge/reelbridge/internal/services/transcoder"
	"github.com/reelbridge/reelbridge/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run() error {
	defer sentry.Recover("server.main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry
	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName+"-server", cfg.ServiceVersion, cfg.Env,
			cfg.OtelExporterOTLPEndpoint, telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders))
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	}
	if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize business metrics
	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	// Initialize logger with OTel support
	slog.SetDefault(logger.New(cfg.Env))

	httpClient := httpclient.NewInstrumentedClient(0)

	chain, err := extractor.NewChainFromConfig(cfg, httpClient)
	if err != nil {
		return err
	}

	workspace, err := artifacts.NewWorkspace(cfg.TempDir)
	if err != nil {
		return err
	}

	ffmpeg := transcoder.NewFFmpeg(cfg.FFmpegPath, cfg.Transcode.Timeout)
	if !ffmpeg.Available() {
		slog.Warn("FFmpeg not found, conversions will fail until it is installed", "path", cfg.FFmpegPath)
		sentry.CaptureMessage("ffmpeg not found at " + cfg.FFmpegPath)
	}

	service := converter.NewService(chain, fetcher.New(httpClient, cfg.Fetch.Timeout), ffmpeg, workspace, cfg.Transcode.Bitrate)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(api.NewServer(service), cfg.ServiceName+"-server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var telegramBot *bot.TelegramBot
	if cfg.TelegramToken != "" {
		if err := cfg.ValidateBot(); err != nil {
			return err
		}
		botAPI, err := bot.NewTelegramAPI(cfg.TelegramToken, "", cfg.Debug, httpclient.WrapClient(&http.Client{}))
		if err != nil {
			return err
		}
		telegramBot = bot.NewTelegramBot(botAPI, bot.NewClient(cfg.ConverterURL, cfg.Bot.RequestTimeout))
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN not set, running the conversion endpoint only")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting server",
			"addr", srv.Addr,
			"strategies", chain.Names(),
			"temp_dir", workspace.Dir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if telegramBot != nil {
		g.Go(func() error {
			return telegramBot.Run(gctx)
		})
	}

	return g.Wait()
}
