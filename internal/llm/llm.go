// Package llm wraps the external text-generation API behind a small
// capability interface so the analysis pipeline can be tested with
// deterministic fakes.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator produces a text completion for a prompt. Implementations may
// fail; callers substitute a fixed warning string instead of propagating.
type Generator interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Config holds the settings for the OpenAI-backed generator.
type Config struct {
	APIKey    string
	BaseURL   string // optional override for compatible endpoints
	Model     string
	MaxTokens int
}

const (
	defaultModel     = openai.GPT4o
	defaultMaxTokens = 800
)

// OpenAI is the production Generator.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
	log       *zap.Logger
}

func NewOpenAI(cfg Config, log *zap.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     model,
		maxTokens: maxTokens,
		log:       log,
	}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		o.log.Error("chat completion failed", zap.Error(err))
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
