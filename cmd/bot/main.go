package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/reelbridge/reelbridge/internal/bot"
	"github.com/reelbridge/reelbridge/internal/config"
	"github.com/reelbridge/reelbridge/internal/httpclient"
	"github.com/reelbridge/reelbridge/internal/logger"
	"github.com/reelbridge/reelbridge/internal/metrics"
	"github.com/reelbridge/reelbridge/internal/sentry"
	"github.com/reelbridge/reelbridge/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Bot failed: %v", err)
	}
}

func run() error {
	defer sentry.Recover("bot.main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName+"-bot", cfg.ServiceVersion, cfg.Env,
			cfg.OtelExporterOTLPEndpoint, telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders))
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	}
	if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	slog.SetDefault(logger.New(cfg.Env))

	botAPI, err := bot.NewTelegramAPI(cfg.TelegramToken, "", cfg.Debug, httpclient.WrapClient(&http.Client{}))
	if err != nil {
		return err
	}

	slog.Info("Using conversion endpoint", "url", cfg.ConverterURL)
	client := bot.NewClient(cfg.ConverterURL, cfg.Bot.RequestTimeout)
	return bot.NewTelegramBot(botAPI, client).Run(ctx)
}
