package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("HOLD_THRESHOLD_MS", "750")
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11434/")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("DEFAULT_MODEL", "mistral:7b")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Ctrl+Shift+T", cfg.Hotkey)
	assert.Equal(t, 750*time.Millisecond, cfg.HoldThreshold())
	assert.Equal(t, "http://127.0.0.1:11434", cfg.OllamaHost)
	assert.True(t, cfg.EnableFileLogging)
	assert.Equal(t, "mistral:7b", cfg.DefaultModel)
	assert.Equal(t, 100*time.Millisecond, cfg.TriggerDelay())
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("HOLD_THRESHOLD_MS", "0")
	t.Setenv("DEFAULT_MODEL", "deepseek-chat")
	t.Setenv("FONT_SIZE", "11")
	t.Setenv("WORKERS", "-3")

	cfg, err := LoadWithOptions(LoadOptions{})
	require.NoError(t, err)

	d := Defaults()
	assert.Equal(t, d.HoldThresholdMS, cfg.HoldThresholdMS)
	assert.Equal(t, DefaultLocalModel, cfg.DefaultModel, "hosted models are not valid startup defaults")
	assert.Equal(t, d.FontSize, cfg.FontSize)
	assert.Equal(t, d.Workers, cfg.Workers)
}

func TestLoadWithOptionsEnvFileAndProfileOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TRIGGER_DELAY_MS=250\n"), 0o600))

	// godotenv.Load never overrides variables that are already set, so make sure
	// the key is absent and clean up what the load sets.
	os.Unsetenv("TRIGGER_DELAY_MS")
	t.Cleanup(func() { os.Unsetenv("TRIGGER_DELAY_MS") })

	cfg, err := LoadWithOptions(LoadOptions{
		EnvPathOverride:     envFile,
		ProfilePathOverride: filepath.Join(dir, "p.txt"),
	})
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.TriggerDelay())
	assert.Equal(t, filepath.Join(dir, "p.txt"), cfg.ProfilePath)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"local", ModeLocal, false},
		{"Ollama", ModeLocal, false},
		{"hosted", ModeHosted, false},
		{" API ", ModeHosted, false},
		{"carrier-pigeon", ModeLocal, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogs(t *testing.T) {
	assert.Equal(t, DefaultLocalModel, DefaultModel(ModeLocal))
	assert.Equal(t, DefaultHostedModel, DefaultModel(ModeHosted))
	assert.True(t, InCatalog(ModeLocal, "llama3.2:3b"))
	assert.False(t, InCatalog(ModeLocal, "deepseek-chat"))
	assert.True(t, InCatalog(ModeHosted, "deepseek-reasoner"))

	c := Catalog(ModeHosted)
	c[0] = "mutated"
	assert.Equal(t, DefaultHostedModel, DefaultModel(ModeHosted), "Catalog must return a copy")
}
