package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	EnvPathEnvVar      = "SELECTION_TRANSLATE_ENV"
	DefaultHotkey      = "Ctrl+Alt+T"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultProfileName = "profile.txt"
)

// LoadOptions carries command-line overrides that win over .env and the environment.
type LoadOptions struct {
	EnvPathOverride     string
	ProfilePathOverride string
}

// Config holds process-level options. User-editable translation settings live in
// the profile file (see Store); everything here is read once at startup.
type Config struct {
	Hotkey            string `env:"HOTKEY"`
	HoldThresholdMS   int    `env:"HOLD_THRESHOLD_MS"`
	TriggerDelayMS    int    `env:"TRIGGER_DELAY_MS"`
	ClipboardSettleMS int    `env:"CLIPBOARD_SETTLE_MS"`
	OllamaHost        string `env:"OLLAMA_HOST"`
	RequestTimeoutSec int    `env:"REQUEST_TIMEOUT_SEC"`
	ProfilePath       string `env:"PROFILE_PATH"`
	DefaultModel      string `env:"DEFAULT_MODEL"`
	EnableFileLogging bool   `env:"ENABLE_FILE_LOGGING"`
	Workers           int    `env:"WORKERS"`
	QueueSize         int    `env:"QUEUE_SIZE"`
	FontSize          int    `env:"FONT_SIZE"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		Hotkey:            DefaultHotkey,
		HoldThresholdMS:   500,
		TriggerDelayMS:    100,
		ClipboardSettleMS: 100,
		OllamaHost:        DefaultOllamaHost,
		RequestTimeoutSec: 60,
		ProfilePath:       defaultProfilePath(),
		DefaultModel:      DefaultLocalModel,
		Workers:           2,
		QueueSize:         4,
		FontSize:          DefaultFontSize,
	}
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) explicit override path
	// 2) .env in the application (executable) directory
	// 3) SELECTION_TRANSLATE_ENV pointing at a config file
	if envPath := resolveEnvPath(opts.EnvPathOverride); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if p := strings.TrimSpace(opts.ProfilePathOverride); p != "" {
		cfg.ProfilePath = p
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := Defaults()
	if strings.TrimSpace(c.Hotkey) == "" {
		c.Hotkey = d.Hotkey
	}
	if c.HoldThresholdMS <= 0 {
		c.HoldThresholdMS = d.HoldThresholdMS
	}
	if c.TriggerDelayMS < 0 {
		c.TriggerDelayMS = d.TriggerDelayMS
	}
	if c.ClipboardSettleMS < 0 {
		c.ClipboardSettleMS = d.ClipboardSettleMS
	}
	if strings.TrimSpace(c.OllamaHost) == "" {
		c.OllamaHost = d.OllamaHost
	}
	c.OllamaHost = strings.TrimRight(c.OllamaHost, "/")
	if !strings.Contains(c.OllamaHost, "://") {
		c.OllamaHost = "http://" + c.OllamaHost
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = d.RequestTimeoutSec
	}
	if strings.TrimSpace(c.ProfilePath) == "" {
		c.ProfilePath = d.ProfilePath
	}
	if !InCatalog(ModeLocal, c.DefaultModel) {
		c.DefaultModel = d.DefaultModel
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if !ValidFontSize(c.FontSize) {
		c.FontSize = d.FontSize
	}
}

func (c *Config) HoldThreshold() time.Duration {
	return time.Duration(c.HoldThresholdMS) * time.Millisecond
}

func (c *Config) TriggerDelay() time.Duration {
	return time.Duration(c.TriggerDelayMS) * time.Millisecond
}

func (c *Config) ClipboardSettle() time.Duration {
	return time.Duration(c.ClipboardSettleMS) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func resolveEnvPath(override string) string {
	if o := strings.TrimSpace(override); o != "" {
		if _, err := os.Stat(o); err == nil {
			return o
		}
	}

	if execDir := executableDir(); execDir != "" {
		exeEnv := filepath.Join(execDir, ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

func defaultProfilePath() string {
	if dir := executableDir(); dir != "" {
		return filepath.Join(dir, DefaultProfileName)
	}
	return DefaultProfileName
}
