package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"selection-translate/src/config"
)

// LocalBackend calls /api/generate on an Ollama-compatible server.
type LocalBackend struct {
	http *resty.Client
}

func NewLocalBackend(host string, timeout time.Duration) *LocalBackend {
	return &LocalBackend{http: newOllamaClient(host, timeout)}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
	Error    string  `json:"error,omitempty"`
}

// BuildLocalPrompt joins the template and the selection the way the local
// models were prompted originally: template, full-width colon, newline, text.
func BuildLocalPrompt(template, text string) string {
	return template + "：\n" + text
}

func (b *LocalBackend) Translate(ctx context.Context, text string, s config.Settings) (string, error) {
	var out, apiErr generateResponse
	r, err := b.http.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:  s.Model,
			Prompt: BuildLocalPrompt(s.PromptTemplate, text),
			Stream: false,
		}).
		ForceContentType("application/json").
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/generate")
	if err != nil {
		return "", transportError(r, err, "failed to decode response")
	}

	if !r.IsSuccess() {
		if apiErr.Error != "" {
			return "", fmt.Errorf("local model server returned status %d: %s", r.StatusCode(), apiErr.Error)
		}
		return "", fmt.Errorf("local model server returned status %d (check that model %q is pulled)", r.StatusCode(), s.Model)
	}
	if out.Error != "" {
		return "", fmt.Errorf("local model error: %s", out.Error)
	}
	if out.Response == nil {
		return "", fmt.Errorf("unexpected response shape: missing \"response\" field")
	}

	return StripThinking(*out.Response), nil
}

var (
	thinkBlock  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkMarker = regexp.MustCompile(`</?think>`)
)

// StripThinking drops reasoning blocks emitted by thinking models, then any
// unpaired markers, and trims the result.
func StripThinking(raw string) string {
	out := thinkBlock.ReplaceAllString(raw, "")
	out = thinkMarker.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
