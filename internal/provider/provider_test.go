package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afeedhshaji/gemcli/config"
	"github.com/afeedhshaji/gemcli/internal/gemini"
	"github.com/afeedhshaji/gemcli/pkg/cache"
	"github.com/afeedhshaji/gemcli/pkg/llm"
	"github.com/afeedhshaji/gemcli/pkg/openaicompat"
)

type countingLLM struct {
	calls int
	err   error
}

func (c *countingLLM) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Text: "echo " + req.Prompt}, nil
}

func (c *countingLLM) Stream(ctx context.Context, req llm.Request, fn llm.ChunkFunc) (*llm.Response, error) {
	resp, err := c.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, fn(resp.Text)
}

func (c *countingLLM) Models(context.Context) ([]llm.ModelInfo, error) {
	return nil, llm.ErrUnsupported
}

func baseConfig(provider string) *config.Config {
	return &config.Config{
		Provider:   provider,
		APIKey:     "k",
		Endpoint:   "http://127.0.0.1:8045",
		APIVersion: "v1beta",
		Transport:  config.TransportREST,
		Model:      "gemini-2.5-flash",
		Timeout:    time.Second,
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	m, err := New(context.Background(), baseConfig(config.ProviderGemini))
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, m)

	m, err = New(context.Background(), baseConfig(config.ProviderOpenAI))
	require.NoError(t, err)
	assert.IsType(t, &openaicompat.Client{}, m)

	_, err = New(context.Background(), baseConfig("palm"))
	assert.Error(t, err)
}

func TestCached_ServesRepeatedPrompt(t *testing.T) {
	inner := &countingLLM{}
	c := cache.New(time.Minute)
	defer c.Stop()
	m := Cached(inner, c, "gemini-2.5-flash")

	for i := 0; i < 3; i++ {
		resp, err := m.Generate(context.Background(), llm.Request{Prompt: "Hello"})
		require.NoError(t, err)
		assert.Equal(t, "echo Hello", resp.Text)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := m.Generate(context.Background(), llm.Request{Prompt: "Hello", SystemPrompt: "other"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "different system prompt must miss")
}

func TestCached_SkipsHistoryAndErrors(t *testing.T) {
	inner := &countingLLM{}
	c := cache.New(time.Minute)
	defer c.Stop()
	m := Cached(inner, c, "m")

	req := llm.Request{Prompt: "Hi", History: []llm.Turn{{Role: llm.RoleUser, Text: "a"}}}
	_, _ = m.Generate(context.Background(), req)
	_, _ = m.Generate(context.Background(), req)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, c.Len())

	inner.err = errors.New("boom")
	_, err := m.Generate(context.Background(), llm.Request{Prompt: "fails"})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCached_NilCache(t *testing.T) {
	inner := &countingLLM{}
	assert.Same(t, llm.LLM(inner), Cached(inner, nil, "m"))
}
