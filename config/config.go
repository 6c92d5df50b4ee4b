package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	TransportREST = "rest"
)

type Config struct {
	Provider        string
	APIKey          string
	Endpoint        string
	APIVersion      string
	Transport       string
	Model           string
	Timeout         time.Duration
	SystemPrompt    string
	Temperature     *float32
	MaxOutputTokens int32
	CacheTTL        time.Duration
	Concurrency     int
	ListenAddr      string
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}

	cfg := &Config{
		Provider:     getEnv("LLM_PROVIDER", ProviderGemini),
		APIKey:       getEnv("GEMINI_API_KEY", ""),
		Endpoint:     getEnv("GEMINI_ENDPOINT", "http://127.0.0.1:8045"),
		APIVersion:   getEnv("GEMINI_API_VERSION", "v1beta"),
		Transport:    getEnv("GEMINI_TRANSPORT", TransportREST),
		Model:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		SystemPrompt: getEnv("SYSTEM_PROMPT", ""),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
	}

	if cfg.APIKey == "" {
		cfg.APIKey = getEnv("GOOGLE_API_KEY", "")
	}

	var err error
	if cfg.Timeout, err = time.ParseDuration(getEnv("GEMINI_TIMEOUT", "120s")); err != nil {
		return nil, fmt.Errorf("GEMINI_TIMEOUT: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("CACHE_TTL", "0s")); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if cfg.Concurrency, err = strconv.Atoi(getEnv("BATCH_CONCURRENCY", "4")); err != nil {
		return nil, fmt.Errorf("BATCH_CONCURRENCY: %w", err)
	}
	maxTokens, err := strconv.ParseInt(getEnv("GEMINI_MAX_TOKENS", "0"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("GEMINI_MAX_TOKENS: %w", err)
	}
	cfg.MaxOutputTokens = int32(maxTokens)
	if raw := getEnv("GEMINI_TEMPERATURE", ""); raw != "" {
		t, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("GEMINI_TEMPERATURE: %w", err)
		}
		cfg.SetTemperature(t)
	}

	return cfg, nil
}

// SetTemperature stores t as the sampling temperature.
func (c *Config) SetTemperature(t float64) {
	v := float32(t)
	c.Temperature = &v
}

// Validate returns every problem found, not just the first.
func (c *Config) Validate() []error {
	var errs []error

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI))
	}
	if c.Transport != TransportREST {
		errs = append(errs, fmt.Errorf("unsupported transport %q: only %s is available", c.Transport, TransportREST))
	}
	if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("endpoint %q must be an absolute http(s) URL", c.Endpoint))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.Provider == ProviderGemini && c.APIKey == "" {
		errs = append(errs, errors.New("api key is required (set GEMINI_API_KEY or --api-key)"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature %.2f out of range [0,2]", *c.Temperature))
	}
	if c.MaxOutputTokens < 0 {
		errs = append(errs, fmt.Errorf("max output tokens must not be negative, got %d", c.MaxOutputTokens))
	}

	return errs
}

// String hides the API key so the config can be logged.
func (c *Config) String() string {
	key := ""
	if c.APIKey != "" {
		key = "****"
	}
	return fmt.Sprintf("provider=%s endpoint=%s api_version=%s transport=%s model=%s timeout=%s key=%s",
		c.Provider, c.Endpoint, c.APIVersion, c.Transport, c.Model, c.Timeout, key)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
