package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"maternityCare/business/oracle"

	"github.com/ollama/ollama/api"
)

const providerName = "ollama"

type OllamaConfig struct {
	BaseURL     string
	Model       string
	HTTPTimeout time.Duration
}

// OllamaOracle is an optional self-hosted tier behind the hosted providers.
type OllamaOracle struct {
	client *api.Client
	model  string
}

var _ oracle.Oracle = (*OllamaOracle)(nil)

func NewOllamaOracle(cfg OllamaConfig) (*OllamaOracle, error) {
	if cfg.Model == "" {
		return nil, errors.New("model name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	return &OllamaOracle{
		client: api.NewClient(baseURL, &http.Client{Timeout: cfg.HTTPTimeout}),
		model:  cfg.Model,
	}, nil
}

func (o *OllamaOracle) Name() string {
	return providerName
}

func (o *OllamaOracle) Generate(ctx context.Context, req oracle.Request) (string, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = req.MaxTokens
	}

	var content string
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", &oracle.StatusError{Provider: providerName, StatusCode: statusErr.StatusCode}
		}
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	return content, nil
}
