// Package llm talks to the translation backends: a local Ollama-style model
// server and a hosted OpenAI-compatible chat-completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"selection-translate/src/config"
)

// ErrMissingAPIKey is returned by the hosted backend before any network call
// when no key is configured.
var ErrMissingAPIKey = errors.New("API key is not set")

// Backend translates text according to the settings snapshot it is handed.
type Backend interface {
	Translate(ctx context.Context, text string, s config.Settings) (string, error)
}

const DefaultRequestTimeout = 60 * time.Second

// Router dispatches to the backend matching Settings.Mode.
type Router struct {
	Local  Backend
	Hosted Backend
}

func NewRouter(ollamaHost string, timeout time.Duration) *Router {
	return &Router{
		Local:  NewLocalBackend(ollamaHost, timeout),
		Hosted: NewHostedBackend(timeout),
	}
}

func (r *Router) Translate(ctx context.Context, text string, s config.Settings) (string, error) {
	var b Backend
	switch s.Mode {
	case config.ModeLocal:
		b = r.Local
	case config.ModeHosted:
		b = r.Hosted
	}
	if b == nil {
		return "", fmt.Errorf("no backend for mode %s", s.Mode)
	}
	return b.Translate(ctx, text, s)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// newOllamaClient returns a resty client rooted at host. Ollama does not
// always label its JSON, so requests built from it should force the
// content type before decoding.
func newOllamaClient(host string, timeout time.Duration) *resty.Client {
	if host == "" {
		host = config.DefaultOllamaHost
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(host, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetLogger(zap.S())
}

// transportError separates a failed round trip from a body that arrived but
// did not decode; resty reports both through the same error return.
func transportError(resp *resty.Response, err error, decodeMsg string) error {
	if resp != nil && resp.RawResponse != nil {
		return fmt.Errorf("%s: %w", decodeMsg, err)
	}
	return fmt.Errorf("local model server unreachable: %w", err)
}
