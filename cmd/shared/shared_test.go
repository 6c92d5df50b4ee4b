package shared

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/config"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

func baseConfig() *config.Config {
	return &config.Config{
		Provider:    config.ProviderGemini,
		APIKey:      "env-key",
		Endpoint:    "http://127.0.0.1:8045",
		APIVersion:  "v1beta",
		Transport:   config.TransportREST,
		Model:       "gemini-2.5-flash",
		Timeout:     120 * time.Second,
		Concurrency: 4,
	}
}

func runWithArgs(t *testing.T, args []string, fn func(cmd *cli.Command)) {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: GetCommonFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			fn(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
}

func TestGetCommonFlags_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range GetCommonFlags() {
		for _, name := range f.Names() {
			assert.False(t, seen[name], "duplicate flag name %q", name)
			seen[name] = true
		}
	}
}

func TestApplyFlags_OnlyExplicit(t *testing.T) {
	cfg := baseConfig()
	runWithArgs(t, []string{"--model", "gemini-2.0-flash", "--temperature", "0.7", "--timeout", "5s"}, func(cmd *cli.Command) {
		ApplyFlags(cmd, cfg)
	})

	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, *cfg.Temperature, 1e-6)

	assert.Equal(t, "env-key", cfg.APIKey, "unset flag must keep config value")
	assert.Equal(t, "http://127.0.0.1:8045", cfg.Endpoint)
	assert.Equal(t, config.TransportREST, cfg.Transport)
}

func TestApplyFlags_EndpointAndKey(t *testing.T) {
	cfg := baseConfig()
	runWithArgs(t, []string{"-e", "http://localhost:9000", "-k", "flag-key", "--max-tokens", "32", "--cache-ttl", "1m"}, func(cmd *cli.Command) {
		ApplyFlags(cmd, cfg)
	})

	assert.Equal(t, "http://localhost:9000", cfg.Endpoint)
	assert.Equal(t, "flag-key", cfg.APIKey)
	assert.Equal(t, int32(32), cfg.MaxOutputTokens)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.SystemPrompt = "sys"
	cfg.MaxOutputTokens = 10
	req := Template(cfg)
	assert.Equal(t, "sys", req.SystemPrompt)
	assert.Equal(t, int32(10), req.MaxOutputTokens)
	assert.Empty(t, req.Prompt)
}

func TestNewLLM_CacheWrapping(t *testing.T) {
	cfg := baseConfig()
	m, cleanup, err := NewLLM(context.Background(), cfg)
	require.NoError(t, err)
	cleanup()
	assert.NotNil(t, m)

	cfg.CacheTTL = time.Minute
	cached, cleanup, err := NewLLM(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.NotEqual(t, m, cached)
}

func TestLoadConfig_OverridesRunBeforeValidation(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("BATCH_CONCURRENCY", "4")
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	runWithArgs(t, nil, func(cmd *cli.Command) {
		cfg, err := LoadConfig(cmd, func(_ *cli.Command, c *config.Config) { c.Concurrency = 7 })
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Concurrency)

		_, err = LoadConfig(cmd, func(_ *cli.Command, c *config.Config) { c.Concurrency = 0 })
		assert.Error(t, err)
	})
	assert.Contains(t, buf.String(), "concurrency must be at least 1")
}
