// Package ark condenses alert text through an OpenAI-compatible chat
// completions endpoint, Volcengine Ark by default.
package ark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

// Defaults for the Ark endpoint.
const (
	DefaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultModel   = "doubao-seed-1-6-flash-250615"

	systemPrompt = "你是一个专业的气象摘要助手，请将多条天气预警合并为简明、无重复的摘要，相同类型预警只保留一条。"
	temperature  = 0.2
)

// Summarizer implements domain.Summarizer.
type Summarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer creates a summarizer. Empty baseURL or model select the
// defaults.
func NewSummarizer(apiKey, baseURL, model string, timeout time.Duration) *Summarizer {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	if model == "" {
		model = DefaultModel
	}
	return &Summarizer{client: openai.NewClientWithConfig(cfg), model: model}
}

// Summarize sends the alert lines and returns the first choice. Every failure
// wraps domain.ErrExternalService.
func (s *Summarizer) Summarize(ctx context.Context, alerts string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: alerts},
		},
		Temperature: temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: ark status %d: %s", domain.ErrExternalService, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: ark request: %w", domain.ErrExternalService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: ark returned no choices", domain.ErrExternalService)
	}
	return resp.Choices[0].Message.Content, nil
}
