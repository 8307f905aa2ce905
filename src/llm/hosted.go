package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"selection-translate/src/config"
)

// HostedBackend speaks the OpenAI chat-completion protocol to the configured
// base URL. A client is built per call because key and URL can change between
// calls.
type HostedBackend struct {
	httpClient *http.Client
	timeout    time.Duration
}

func NewHostedBackend(timeout time.Duration) *HostedBackend {
	c := newHTTPClient(timeout)
	return &HostedBackend{httpClient: c, timeout: c.Timeout}
}

func (b *HostedBackend) Translate(ctx context.Context, text string, s config.Settings) (string, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	baseURL := strings.TrimSpace(s.APIBaseURL)
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := openai.NewClient(
		option.WithAPIKey(s.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(b.httpClient),
		option.WithRequestTimeout(b.timeout),
		// single attempt: a failed call is reported, not repeated
		option.WithMaxRetries(0),
	)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.PromptTemplate),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("API returned status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("API request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}
	return resp.Choices[0].Message.Content, nil
}
