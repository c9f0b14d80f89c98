// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/doc2md/internal/httputil"
	"github.com/pdiddy/doc2md/pkg/types"
)

// DeepSeekBaseURL is the OpenAI-compatible endpoint of DeepSeek.
const DeepSeekBaseURL = "https://api.deepseek.com"

var errEmptyResponse = errors.New("empty response")

// ChatProvider talks to an OpenAI-compatible chat completions API. Both
// OpenAI and DeepSeek are served by it; they differ in base URL and model.
type ChatProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewProvider builds the provider for kind. httpClient may be nil.
func NewProvider(kind types.ProviderKind, cfg types.ProviderConfig, httpClient *http.Client) (*ChatProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key not configured", kind)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model not configured", kind)
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	switch kind {
	case types.ProviderOpenAI:
	case types.ProviderDeepSeek:
		oc.BaseURL = DeepSeekBaseURL
	default:
		return nil, fmt.Errorf("unknown AI provider %q", kind)
	}
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	return &ChatProvider{
		name:   string(kind),
		model:  cfg.Model,
		client: openai.NewClientWithConfig(oc),
	}, nil
}

func (p *ChatProvider) Name() string  { return p.name }
func (p *ChatProvider) Model() string { return p.model }

// Submit sends the system and user prompts as one chat completion.
func (p *ChatProvider) Submit(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", p.classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &TransientError{Provider: p.name, Err: errEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors onto ProviderError and TransientError.
func (p *ChatProvider) classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if httputil.IsTransientStatus(apiErr.HTTPStatusCode) {
			return &TransientError{Provider: p.name, Status: apiErr.HTTPStatusCode, Err: err}
		}
		return &ProviderError{Provider: p.name, Status: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if httputil.IsTransientStatus(reqErr.HTTPStatusCode) {
			return &TransientError{Provider: p.name, Status: reqErr.HTTPStatusCode, Err: err}
		}
		return &ProviderError{Provider: p.name, Status: reqErr.HTTPStatusCode, Err: err}
	}

	if httputil.IsTransientErr(err) {
		return &TransientError{Provider: p.name, Err: err}
	}
	return &ProviderError{Provider: p.name, Err: err}
}
