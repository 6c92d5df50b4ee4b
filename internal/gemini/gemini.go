package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/afeedhshaji/gemcli/pkg/llm"
)

type Options struct {
	APIKey       string
	Endpoint     string
	APIVersion   string
	Model        string
	Timeout      time.Duration
	SystemPrompt string
}

// Client wraps a genai client bound to one model and endpoint.
type Client struct {
	Model        string
	SystemPrompt string
	Timeout      time.Duration

	client *genai.Client
}

// New creates a Gemini client that talks REST to opts.Endpoint.
func New(ctx context.Context, opts Options) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    opts.Endpoint,
			APIVersion: opts.APIVersion,
		},
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		Model:        opts.Model,
		SystemPrompt: opts.SystemPrompt,
		Timeout:      opts.Timeout,
		client:       client,
	}, nil
}

// Generate sends one generateContent request and returns the response text.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[gemini] generateContent model=%s history=%d", c.Model, len(req.History))

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.Model, contents(req), c.generateConfig(req))
	if err != nil {
		return nil, wrapErr(err)
	}

	out := convert(resp, c.Model)
	out.Text = strings.TrimSpace(out.Text)
	if out.Text == "" {
		return nil, emptyErr(resp)
	}
	log.Printf("[gemini] finish=%s tokens=%d", out.FinishReason, out.Usage.TotalTokens)
	return out, nil
}

// Stream calls fn for each non-empty chunk and returns the joined response.
func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.ChunkFunc) (*llm.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[gemini] streamGenerateContent model=%s history=%d", c.Model, len(req.History))

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		sb   strings.Builder
		out  = &llm.Response{Model: c.Model}
		last *genai.GenerateContentResponse
	)
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.Model, contents(req), c.generateConfig(req)) {
		if err != nil {
			return nil, wrapErr(err)
		}
		last = resp
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if err := fn(chunk); err != nil {
			return nil, err
		}
	}

	if last != nil {
		out = convert(last, c.Model)
	}
	out.Text = strings.TrimSpace(sb.String())
	if out.Text == "" {
		return nil, emptyErr(last)
	}
	return out, nil
}

// Models lists the models the endpoint exposes.
func (c *Client) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var models []llm.ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, wrapErr(err)
		}
		models = append(models, llm.ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
		})
	}
	return models, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func (c *Client) generateConfig(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	system := req.SystemPrompt
	if system == "" {
		system = c.SystemPrompt
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

func contents(req llm.Request) []*genai.Content {
	out := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		role := genai.Role(genai.RoleUser)
		if t.Role == llm.RoleModel {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(t.Text, role))
	}
	return append(out, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}

// convert falls back to model when the response carries no model version.
func convert(resp *genai.GenerateContentResponse, model string) *llm.Response {
	out := &llm.Response{
		Text:  resp.Text(),
		Model: resp.ModelVersion,
	}
	if out.Model == "" {
		out.Model = model
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens: int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out
}

func emptyErr(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return llm.ErrEmptyResponse
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return fmt.Errorf("%w: prompt blocked (%s)", llm.ErrEmptyResponse, pf.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].FinishReason != "" {
		return fmt.Errorf("%w: finish reason %s", llm.ErrEmptyResponse, resp.Candidates[0].FinishReason)
	}
	return llm.ErrEmptyResponse
}

func wrapErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini api error %d: %s: %w", apiErr.Code, apiErr.Status, err)
	}
	return fmt.Errorf("gemini: %w", err)
}
