package bootstrap

import (
	"context"
	"fmt"

	"maternityCare/business/oracle"
	"maternityCare/internal/repository/gemini"
	"maternityCare/internal/repository/ollama"
	"maternityCare/internal/repository/openai"
	"maternityCare/pkg/config"
	"maternityCare/pkg/logger"
)

const (
	StageSignals = "signals"
	StageCopy    = "copy"
)

// BuildChain ranks the configured providers: OpenAI, then Gemini, then a
// local Ollama. Providers without credentials are skipped, so an empty chain
// is valid and simply fails every Run.
func BuildChain(ctx context.Context, stage string, cfg config.OracleConfig) (*oracle.Chain, error) {
	var ranked []oracle.Oracle

	if cfg.OpenAIKey != "" {
		o, err := openai.NewOpenAIOracle(openai.OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init openai oracle: %w", err)
		}
		ranked = append(ranked, o)
	}

	if cfg.GeminiKey != "" {
		g, err := gemini.NewGeminiOracle(ctx, gemini.GeminiConfig{
			APIKey: cfg.GeminiKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init gemini oracle: %w", err)
		}
		ranked = append(ranked, g)
	}

	if cfg.OllamaURL != "" {
		o, err := ollama.NewOllamaOracle(ollama.OllamaConfig{
			BaseURL:     cfg.OllamaURL,
			Model:       cfg.OllamaModel,
			HTTPTimeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init ollama oracle: %w", err)
		}
		ranked = append(ranked, o)
	}

	chain := oracle.NewChain(stage, cfg.Timeout, ranked...)
	if len(ranked) == 0 {
		logger.Warn("no oracle provider configured", "stage", stage)
	} else {
		logger.Info("oracle chain ready", "stage", stage, "providers", chain.Providers())
	}

	return chain, nil
}
