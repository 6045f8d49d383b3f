package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maternityCare/business/oracle"

	"google.golang.org/genai"
)

const providerName = "gemini"

type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiOracle is the secondary provider; it asks for application/json
// output so the shared decoder sees a bare object.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

var _ oracle.Oracle = (*GeminiOracle)(nil)

func NewGeminiOracle(ctx context.Context, cfg GeminiConfig) (*GeminiOracle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiOracle{client: client, model: model}, nil
}

func (g *GeminiOracle) Name() string {
	return providerName
}

func (g *GeminiOracle) Generate(ctx context.Context, req oracle.Request) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &oracle.StatusError{Provider: providerName, StatusCode: apiErr.Code}
		}
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned no text")
	}

	return text, nil
}
