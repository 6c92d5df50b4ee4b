// Package shared holds the flags and setup used by every gemcli command.
package shared

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/config"
	"github.com/afeedhshaji/gemcli/internal/provider"
	"github.com/afeedhshaji/gemcli/pkg/cache"
	"github.com/afeedhshaji/gemcli/pkg/llm"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

const categoryConnection = "connection"
const categoryGeneration = "generation"

const (
	ProviderFlag    = "provider"
	APIKeyFlag      = "api-key"
	EndpointFlag    = "endpoint"
	APIVersionFlag  = "api-version"
	TransportFlag   = "transport"
	ModelFlag       = "model"
	TimeoutFlag     = "timeout"
	SystemFlag      = "system"
	TemperatureFlag = "temperature"
	MaxTokensFlag   = "max-tokens"
	CacheTTLFlag    = "cache-ttl"
	VerboseFlag     = "verbose"
	JSONFlag        = "json"
	StreamFlag      = "stream"
)

// GetCommonFlags returns the flags every command accepts. Defaults come from
// the environment, so a flag only overrides config when it is set.
func GetCommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ProviderFlag,
			Usage:    "API flavor spoken by the endpoint (gemini|openai) [$LLM_PROVIDER]",
			Category: categoryConnection,
		},
		&cli.StringFlag{
			Name:     APIKeyFlag,
			Aliases:  []string{"k"},
			Usage:    "API key [$GEMINI_API_KEY]",
			Category: categoryConnection,
		},
		&cli.StringFlag{
			Name:     EndpointFlag,
			Aliases:  []string{"e"},
			Usage:    "Custom API endpoint (default http://127.0.0.1:8045) [$GEMINI_ENDPOINT]",
			Category: categoryConnection,
		},
		&cli.StringFlag{
			Name:     APIVersionFlag,
			Usage:    "Gemini API version path segment (default v1beta) [$GEMINI_API_VERSION]",
			Category: categoryConnection,
		},
		&cli.StringFlag{
			Name:     TransportFlag,
			Usage:    "Wire transport, only rest is supported [$GEMINI_TRANSPORT]",
			Category: categoryConnection,
		},
		&cli.DurationFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Request timeout (default 120s) [$GEMINI_TIMEOUT]",
			Category: categoryConnection,
		},
		&cli.StringFlag{
			Name:     ModelFlag,
			Aliases:  []string{"m"},
			Usage:    "Model name (default gemini-2.5-flash) [$GEMINI_MODEL]",
			Category: categoryGeneration,
		},
		&cli.StringFlag{
			Name:     SystemFlag,
			Aliases:  []string{"s"},
			Usage:    "System instruction [$SYSTEM_PROMPT]",
			Category: categoryGeneration,
		},
		&cli.FloatFlag{
			Name:     TemperatureFlag,
			Usage:    "Sampling temperature in [0,2] [$GEMINI_TEMPERATURE]",
			Category: categoryGeneration,
		},
		&cli.IntFlag{
			Name:     MaxTokensFlag,
			Usage:    "Maximum output tokens, 0 for provider default [$GEMINI_MAX_TOKENS]",
			Category: categoryGeneration,
		},
		&cli.DurationFlag{
			Name:     CacheTTLFlag,
			Usage:    "Reuse identical single-turn responses for this long, 0 disables [$CACHE_TTL]",
			Category: categoryGeneration,
		},
		&cli.BoolFlag{
			Name:    VerboseFlag,
			Aliases: []string{"v"},
			Usage:   "Log requests and provider diagnostics to stderr",
		},
	}
}

// SetupLogging silences library logs and debug messages unless verbose is set.
func SetupLogging(verbose bool) {
	log.SetVerbose(verbose)
	stdlog.SetFlags(stdlog.LstdFlags)
	if verbose {
		stdlog.SetOutput(os.Stderr)
		return
	}
	stdlog.SetOutput(io.Discard)
}

// Override adjusts cfg from command-specific flags before validation.
type Override func(cmd *cli.Command, cfg *config.Config)

// LoadConfig reads the environment, applies explicitly set flags and
// overrides, then validates.
func LoadConfig(cmd *cli.Command, overrides ...Override) (*config.Config, error) {
	SetupLogging(cmd.Bool(VerboseFlag))

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	ApplyFlags(cmd, cfg)
	for _, o := range overrides {
		o(cmd, cfg)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		log.ErrorMsg("Argument validation errors:\n")
		for _, err := range errs {
			log.ErrorMsg(" - %s\n", err)
		}
		return nil, fmt.Errorf("invalid configuration")
	}
	log.DebugMsg("Config: %s\n", cfg)
	return cfg, nil
}

// ApplyFlags copies every explicitly set flag onto cfg.
func ApplyFlags(cmd *cli.Command, cfg *config.Config) {
	strs := map[string]*string{
		ProviderFlag:   &cfg.Provider,
		APIKeyFlag:     &cfg.APIKey,
		EndpointFlag:   &cfg.Endpoint,
		APIVersionFlag: &cfg.APIVersion,
		TransportFlag:  &cfg.Transport,
		ModelFlag:      &cfg.Model,
		SystemFlag:     &cfg.SystemPrompt,
	}
	for name, dst := range strs {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	if cmd.IsSet(TimeoutFlag) {
		cfg.Timeout = cmd.Duration(TimeoutFlag)
	}
	if cmd.IsSet(CacheTTLFlag) {
		cfg.CacheTTL = cmd.Duration(CacheTTLFlag)
	}
	if cmd.IsSet(TemperatureFlag) {
		cfg.SetTemperature(cmd.Float(TemperatureFlag))
	}
	if cmd.IsSet(MaxTokensFlag) {
		cfg.MaxOutputTokens = int32(cmd.Int(MaxTokensFlag))
	}
}

// Template is the request every command starts from.
func Template(cfg *config.Config) llm.Request {
	return llm.Request{
		SystemPrompt:    cfg.SystemPrompt,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

// NewLLM builds the provider client, wrapped in a cache when CacheTTL is set.
// The returned func releases the cache.
func NewLLM(ctx context.Context, cfg *config.Config) (llm.LLM, func(), error) {
	m, err := provider.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.CacheTTL <= 0 {
		return m, func() {}, nil
	}
	c := cache.New(cfg.CacheTTL)
	return provider.Cached(m, c, cfg.Model), c.Stop, nil
}

// Setup is LoadConfig followed by NewLLM.
func Setup(ctx context.Context, cmd *cli.Command, overrides ...Override) (*config.Config, llm.LLM, func(), error) {
	cfg, err := LoadConfig(cmd, overrides...)
	if err != nil {
		return nil, nil, nil, err
	}
	m, cleanup, err := NewLLM(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, m, cleanup, nil
}

// Stdout returns the writer command output goes to.
func Stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
