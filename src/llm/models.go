package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultPullTimeout bounds a blocking model download.
const DefaultPullTimeout = 30 * time.Minute

// ModelManager inspects and downloads models on the local model server.
type ModelManager struct {
	http     *resty.Client
	pullHTTP *resty.Client
	pulls    singleflight.Group
}

func NewModelManager(host string, timeout time.Duration) *ModelManager {
	return &ModelManager{
		http:     newOllamaClient(host, timeout),
		pullHTTP: newOllamaClient(host, DefaultPullTimeout),
	}
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// List returns the names of the installed models.
func (m *ModelManager) List(ctx context.Context) ([]string, error) {
	var tags tagsResponse
	r, err := m.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&tags).
		Get("/api/tags")
	if err != nil {
		return nil, transportError(r, err, "failed to decode model list")
	}
	if !r.IsSuccess() {
		return nil, fmt.Errorf("listing models returned status %d", r.StatusCode())
	}

	names := make([]string, 0, len(tags.Models))
	for _, mdl := range tags.Models {
		name := mdl.Name
		if name == "" {
			name = mdl.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Available reports whether model is installed. A bare name matches its
// ":latest" tag.
func (m *ModelManager) Available(ctx context.Context, model string) (bool, error) {
	names, err := m.List(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == model || n == model+":latest" || strings.TrimSuffix(n, ":latest") == model {
			return true, nil
		}
	}
	return false, nil
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Pull downloads model and blocks until the server reports success.
// Concurrent pulls of the same model share one request.
func (m *ModelManager) Pull(ctx context.Context, model string) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("model name is empty")
	}
	_, err, shared := m.pulls.Do(model, func() (interface{}, error) {
		return nil, m.pull(ctx, model)
	})
	if shared {
		zap.S().Debugf("llm: joined in-flight pull of %s", model)
	}
	return err
}

func (m *ModelManager) pull(ctx context.Context, model string) error {
	start := time.Now()
	zap.S().Infof("llm: pulling model %s", model)

	var out pullResponse
	r, err := m.pullHTTP.R().
		SetContext(ctx).
		SetBody(pullRequest{Name: model, Stream: false}).
		ForceContentType("application/json").
		SetResult(&out).
		SetError(&out).
		Post("/api/pull")
	if err != nil {
		if r != nil && r.RawResponse != nil {
			return fmt.Errorf("failed to decode pull response: %w", err)
		}
		return fmt.Errorf("pull of %s failed: %w", model, err)
	}

	if out.Error != "" {
		return fmt.Errorf("pull of %s failed: %s", model, out.Error)
	}
	if !r.IsSuccess() {
		return fmt.Errorf("pull of %s returned status %d", model, r.StatusCode())
	}
	if out.Status != "success" {
		return fmt.Errorf("pull of %s ended with status %q", model, out.Status)
	}

	zap.S().Infof("llm: pulled model %s in %v", model, time.Since(start))
	return nil
}

// Ping returns the server version, or an error if it is not reachable.
func (m *ModelManager) Ping(ctx context.Context) (string, error) {
	var v struct {
		Version string `json:"version"`
	}
	r, err := m.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&v).
		Get("/api/version")
	if err != nil {
		if r != nil && r.RawResponse != nil {
			return "", fmt.Errorf("failed to decode version: %w", err)
		}
		return "", fmt.Errorf("local model server unreachable at %s: %w", m.http.BaseURL, err)
	}
	if !r.IsSuccess() {
		return "", fmt.Errorf("version check returned status %d", r.StatusCode())
	}
	return v.Version, nil
}
