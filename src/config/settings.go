package config

import (
	"fmt"
	"strings"
)

const (
	DefaultAPIBaseURL = "https://api.deepseek.com"
	DefaultPrompt     = "Translate the following text (Chinese <-> English)"

	DefaultLocalModel  = "deepseek-r1:7b"
	DefaultHostedModel = "deepseek-chat"
)

// Mode selects which translation provider is active.
type Mode int

const (
	ModeLocal Mode = iota
	ModeHosted
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeHosted:
		return "hosted"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names printed by String plus a few aliases used on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local", "ollama":
		return ModeLocal, nil
	case "hosted", "api", "remote":
		return ModeHosted, nil
	default:
		return ModeLocal, fmt.Errorf("unknown backend mode %q", s)
	}
}

var catalogs = map[Mode][]string{
	ModeLocal:  {DefaultLocalModel, "llama3.2:3b", "deepseek-r1:1.5b", "deepseek-r1:32b", "mistral:7b"},
	ModeHosted: {DefaultHostedModel, "deepseek-reasoner"},
}

// Catalog returns the models selectable in mode. The first entry is the mode default.
func Catalog(m Mode) []string {
	models := catalogs[m]
	out := make([]string, len(models))
	copy(out, models)
	return out
}

func DefaultModel(m Mode) string {
	if models := catalogs[m]; len(models) > 0 {
		return models[0]
	}
	return ""
}

func InCatalog(m Mode, model string) bool {
	for _, candidate := range catalogs[m] {
		if candidate == model {
			return true
		}
	}
	return false
}

const DefaultFontSize = 10

// FontSizes are the overlay font sizes offered in the font menu.
var FontSizes = []int{8, 10, 12, 14, 16, 18, 20}

func ValidFontSize(n int) bool {
	for _, s := range FontSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Settings is the user-facing translation configuration. It is passed by value;
// a copy is an immutable snapshot.
type Settings struct {
	APIKey         string
	APIBaseURL     string
	PromptTemplate string
	Mode           Mode
	Model          string
}

// DefaultSettings returns the built-in values used when the profile is absent.
func DefaultSettings() Settings {
	return Settings{
		APIBaseURL:     DefaultAPIBaseURL,
		PromptTemplate: DefaultPrompt,
		Mode:           ModeLocal,
		Model:          DefaultLocalModel,
	}
}
