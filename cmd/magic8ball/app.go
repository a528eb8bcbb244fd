package main

import (
	"context"
	"fmt"

	"github.com/comigor/magic8ball-go/internal/agent"
	"github.com/comigor/magic8ball-go/internal/catalog"
	"github.com/comigor/magic8ball-go/internal/config"
	"github.com/comigor/magic8ball-go/internal/llm"
	"github.com/comigor/magic8ball-go/internal/oracle"
)

// buildAnswerer returns the answer source for the configured mode and a
// label for the help text.
func buildAnswerer(ctx context.Context, cfg *config.Config) (agent.Answerer, string, error) {
	switch cfg.AnswerMode {
	case config.AnswerModeCatalog:
		return agent.CatalogAnswerer{Catalog: catalog.New()}, "the ancient catalog", nil
	case config.AnswerModeOracle:
		client, err := llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			return nil, "", err
		}
		brain := oracle.New(client, cfg.LLM.Model, oracle.ResolvePersona(cfg.Persona), oracle.WithMaxTokens(cfg.LLM.MaxTokens))
		return agent.OracleAnswerer{Brain: brain}, poweredBy(cfg.LLM.Provider), nil
	default:
		return nil, "", fmt.Errorf("unknown answer_mode %q", cfg.AnswerMode)
	}
}

func poweredBy(provider string) string {
	switch provider {
	case config.ProviderGemini:
		return "Gemini"
	default:
		return "OpenAI"
	}
}
