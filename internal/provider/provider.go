// Package provider builds the configured llm.LLM.
package provider

import (
	"context"
	"fmt"
	"log"

	"github.com/afeedhshaji/gemcli/config"
	"github.com/afeedhshaji/gemcli/internal/gemini"
	"github.com/afeedhshaji/gemcli/pkg/cache"
	"github.com/afeedhshaji/gemcli/pkg/llm"
	"github.com/afeedhshaji/gemcli/pkg/openaicompat"
)

// New returns the client for cfg.Provider. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config) (llm.LLM, error) {
	log.Printf("[provider] %s", cfg)
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, gemini.Options{
			APIKey:       cfg.APIKey,
			Endpoint:     cfg.Endpoint,
			APIVersion:   cfg.APIVersion,
			Model:        cfg.Model,
			Timeout:      cfg.Timeout,
			SystemPrompt: cfg.SystemPrompt,
		})
	case config.ProviderOpenAI:
		return openaicompat.New(openaicompat.Options{
			APIKey:       cfg.APIKey,
			Endpoint:     cfg.Endpoint,
			Model:        cfg.Model,
			Timeout:      cfg.Timeout,
			SystemPrompt: cfg.SystemPrompt,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// CachedLLM answers repeated single-turn requests from a cache.
type CachedLLM struct {
	llm.LLM
	Cache *cache.Cache
	Model string
}

// Cached wraps m. A nil cache returns m unchanged.
func Cached(m llm.LLM, c *cache.Cache, model string) llm.LLM {
	if c == nil {
		return m
	}
	return &CachedLLM{LLM: m, Cache: c, Model: model}
}

func (c *CachedLLM) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if len(req.History) > 0 {
		return c.LLM.Generate(ctx, req)
	}
	key := requestKey(c.Model, req)
	if text, ok := c.Cache.Get(key); ok {
		log.Printf("[cache] hit %s", key[:8])
		return &llm.Response{Text: text, Model: c.Model, FinishReason: "CACHED"}, nil
	}
	resp, err := c.LLM.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Text != "" {
		c.Cache.Put(key, resp.Text)
	}
	return resp, nil
}

func requestKey(model string, req llm.Request) string {
	temp := ""
	if req.Temperature != nil {
		temp = fmt.Sprintf("%g", *req.Temperature)
	}
	return cache.Key(model, req.SystemPrompt, temp, fmt.Sprint(req.MaxOutputTokens), req.Prompt)
}
