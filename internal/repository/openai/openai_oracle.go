package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maternityCare/business/oracle"

	openai "github.com/sashabaranov/go-openai"
)

const providerName = "openai"

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIOracle answers structured prompts through chat completions in JSON
// object mode.
type OpenAIOracle struct {
	client *openai.Client
	model  string
}

var _ oracle.Oracle = (*OpenAIOracle)(nil)

func NewOpenAIOracle(cfg OpenAIConfig) (*OpenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIOracle{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

func (o *OpenAIOracle) Name() string {
	return providerName
}

func (o *OpenAIOracle) Generate(ctx context.Context, req oracle.Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return "", &oracle.StatusError{Provider: providerName, StatusCode: apiErr.HTTPStatusCode}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			return "", &oracle.StatusError{Provider: providerName, StatusCode: reqErr.HTTPStatusCode}
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
