package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromYAML(t *testing.T) {
	configContent := `extraction:
  strategies: [snapsave, ytdlp]
  timeout: 5s
fetch:
  timeout: 45s
transcode:
  bitrate: 128k
  timeout: 1m
bot:
  request_timeout: 90s`

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg := &Config{}
	err = cfg.LoadFromYAML(configPath)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if len(cfg.Extraction.Strategies) != 2 || cfg.Extraction.Strategies[0] != "snapsave" {
		t.Errorf("Expected strategies [snapsave ytdlp], got %v", cfg.Extraction.Strategies)
	}
	if cfg.Extraction.Timeout != 5*time.Second {
		t.Errorf("Expected extraction timeout 5s, got %v", cfg.Extraction.Timeout)
	}
	if cfg.Fetch.Timeout != 45*time.Second {
		t.Errorf("Expected fetch timeout 45s, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Transcode.Bitrate != "128k" {
		t.Errorf("Expected bitrate '128k', got '%s'", cfg.Transcode.Bitrate)
	}
	if cfg.Transcode.Timeout != time.Minute {
		t.Errorf("Expected transcode timeout 1m, got %v", cfg.Transcode.Timeout)
	}
	if cfg.Bot.RequestTimeout != 90*time.Second {
		t.Errorf("Expected bot request timeout 90s, got %v", cfg.Bot.RequestTimeout)
	}
}

func TestLoadFromYAMLPartial(t *testing.T) {
	configContent := `transcode:
  bitrate: 320k`

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config_partial.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg := &Config{}
	cfg.SetDefaults()
	err = cfg.LoadFromYAML(configPath)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.Transcode.Bitrate != "320k" {
		t.Errorf("Expected bitrate to be '320k', got '%s'", cfg.Transcode.Bitrate)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("Expected fetch timeout to keep default 30s, got %v", cfg.Fetch.Timeout)
	}
	if len(cfg.Extraction.Strategies) != len(DefaultStrategies) {
		t.Errorf("Expected default strategies, got %v", cfg.Extraction.Strategies)
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Env != "development" {
		t.Errorf("Expected env 'development', got '%s'", cfg.Env)
	}
	if cfg.Addr() != "127.0.0.1:5000" {
		t.Errorf("Expected addr '127.0.0.1:5000', got '%s'", cfg.Addr())
	}
	if cfg.ConverterURL != "http://127.0.0.1:5000/download" {
		t.Errorf("Expected converter URL derived from addr, got '%s'", cfg.ConverterURL)
	}
	if cfg.Transcode.Bitrate != "192k" {
		t.Errorf("Expected bitrate '192k', got '%s'", cfg.Transcode.Bitrate)
	}
	if cfg.Bot.RequestTimeout != 2*time.Minute {
		t.Errorf("Expected bot request timeout 2m, got %v", cfg.Bot.RequestTimeout)
	}
	if cfg.FFmpegPath != "ffmpeg" || cfg.YtDlpPath != "yt-dlp" {
		t.Errorf("Unexpected engine defaults: %q %q", cfg.FFmpegPath, cfg.YtDlpPath)
	}
}

func TestLoadFromYAMLFileNotFound(t *testing.T) {
	cfg := &Config{}
	err := cfg.LoadFromYAML("non_existent_file.yaml")

	if err != nil {
		t.Errorf("Expected no error for non-existent file, got: %v", err)
	}
}

func TestLoadFromYAMLInvalid(t *testing.T) {
	configContent := `extraction:
  strategies: [unclosed`

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config_invalid.yaml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg := &Config{}
	err = cfg.LoadFromYAML(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	if err := cfg.validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got %v", err)
	}

	cfg.Extraction.Strategies = []string{"ytdlp", "carrier-pigeon"}
	if err := cfg.validate(); err == nil {
		t.Error("Expected error for unknown strategy")
	}

	cfg.Extraction.Strategies = DefaultStrategies
	cfg.Port = "http"
	if err := cfg.validate(); err == nil {
		t.Error("Expected error for non-numeric port")
	}
}

func TestValidateBot(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	if err := cfg.ValidateBot(); err == nil {
		t.Error("Expected error when TELEGRAM_BOT_TOKEN is missing")
	}

	cfg.TelegramToken = "123:abc"
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("DEBUG", "true")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:6000" {
		t.Errorf("Expected addr '0.0.0.0:6000', got '%s'", cfg.Addr())
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
