package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	TelegramToken string
	Debug         bool

	Host         string
	Port         string
	ConverterURL string
	TempDir      string

	FFmpegPath string
	YtDlpPath  string

	ProxyServerURL string
	ProxyAPIKey    string
	RapidAPIKey    string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Extraction ExtractionConfig
	Fetch      FetchConfig
	Transcode  TranscodeConfig
	Bot        BotConfig
}

type ExtractionConfig struct {
	Strategies []string      `yaml:"strategies"`
	Timeout    time.Duration `yaml:"timeout"`
}

type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type TranscodeConfig struct {
	Bitrate string        `yaml:"bitrate"`
	Timeout time.Duration `yaml:"timeout"`
}

type BotConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultStrategies is the extraction order used when config.yaml does not set one.
var DefaultStrategies = []string{"ytdlp", "snapsave", "pagemeta", "graphql", "rapidapi"}

var knownStrategies = map[string]bool{
	"ytdlp":    true,
	"snapsave": true,
	"pagemeta": true,
	"graphql":  true,
	"rapidapi": true,
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		TelegramToken:            os.Getenv("TELEGRAM_BOT_TOKEN"),
		Debug:                    getBoolEnv("DEBUG", false),
		Host:                     os.Getenv("HOST"),
		Port:                     os.Getenv("PORT"),
		ConverterURL:             os.Getenv("CONVERTER_URL"),
		TempDir:                  os.Getenv("TEMP_DIR"),
		FFmpegPath:               os.Getenv("FFMPEG_PATH"),
		YtDlpPath:                os.Getenv("YTDLP_PATH"),
		ProxyServerURL:           os.Getenv("PROXY_SERVER_URL"),
		ProxyAPIKey:              os.Getenv("PROXY_API_KEY"),
		RapidAPIKey:              os.Getenv("RAPIDAPI_KEY"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
	}

	// Load from YAML file if available
	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Extraction ExtractionConfig `yaml:"extraction"`
		Fetch      FetchConfig      `yaml:"fetch"`
		Transcode  TranscodeConfig  `yaml:"transcode"`
		Bot        BotConfig        `yaml:"bot"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(yamlConfig.Extraction.Strategies) > 0 {
		c.Extraction.Strategies = yamlConfig.Extraction.Strategies
	}
	if yamlConfig.Extraction.Timeout > 0 {
		c.Extraction.Timeout = yamlConfig.Extraction.Timeout
	}
	if yamlConfig.Fetch.Timeout > 0 {
		c.Fetch.Timeout = yamlConfig.Fetch.Timeout
	}
	if yamlConfig.Transcode.Bitrate != "" {
		c.Transcode.Bitrate = yamlConfig.Transcode.Bitrate
	}
	if yamlConfig.Transcode.Timeout > 0 {
		c.Transcode.Timeout = yamlConfig.Transcode.Timeout
	}
	if yamlConfig.Bot.RequestTimeout > 0 {
		c.Bot.RequestTimeout = yamlConfig.Bot.RequestTimeout
	}

	return nil
}

func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.ServiceName == "" {
		c.ServiceName = "reelbridge"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == "" {
		c.Port = "5000"
	}
	if c.ConverterURL == "" {
		c.ConverterURL = fmt.Sprintf("http://%s/download", c.Addr())
	}
	if c.TempDir == "" {
		c.TempDir = filepath.Join(os.TempDir(), "reelbridge")
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.YtDlpPath == "" {
		c.YtDlpPath = "yt-dlp"
	}

	if len(c.Extraction.Strategies) == 0 {
		c.Extraction.Strategies = append([]string(nil), DefaultStrategies...)
	}
	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 15 * time.Second
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Transcode.Bitrate == "" {
		c.Transcode.Bitrate = "192k"
	}
	if c.Transcode.Timeout == 0 {
		c.Transcode.Timeout = 2 * time.Minute
	}
	if c.Bot.RequestTimeout == 0 {
		c.Bot.RequestTimeout = 2 * time.Minute
	}
}

// Addr is the listen address of the conversion endpoint.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ValidateBot checks the settings the chat front end cannot run without.
func (c *Config) ValidateBot() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.ConverterURL == "" {
		return fmt.Errorf("CONVERTER_URL is required")
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	for _, name := range c.Extraction.Strategies {
		if !knownStrategies[name] {
			return fmt.Errorf("unknown extraction strategy %q", name)
		}
	}
	return nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return boolValue
	}
	return defaultValue
}
