// Package openaicompat talks to relays that expose the OpenAI chat
// completions API next to (or instead of) the Gemini REST API.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/afeedhshaji/gemcli/pkg/llm"
)

type Options struct {
	APIKey       string
	Endpoint     string
	Model        string
	Timeout      time.Duration
	SystemPrompt string
}

// Client wraps an OpenAI-compatible chat completions endpoint.
type Client struct {
	Model        string
	SystemPrompt string
	Timeout      time.Duration

	client *openai.Client
}

// New creates a client for endpoint; "/v1" is appended unless already present.
func New(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = BaseURL(opts.Endpoint)
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return &Client{
		Model:        opts.Model,
		SystemPrompt: opts.SystemPrompt,
		Timeout:      opts.Timeout,
		client:       openai.NewClientWithConfig(cfg),
	}
}

// BaseURL normalizes a relay endpoint into the go-openai base URL.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// Generate sends one chat completion request.
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[openai] chat completion model=%s history=%d", c.Model, len(req.History))

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, c.chatRequest(req))
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: finish reason %s", llm.ErrEmptyResponse, resp.Choices[0].FinishReason)
	}
	return &llm.Response{
		Text:         text,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: llm.Usage{
			PromptTokens: resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

// Stream reads deltas until the server closes the stream.
func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.ChunkFunc) (*llm.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[openai] streaming chat completion model=%s", c.Model)

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	chatReq := c.chatRequest(req)
	chatReq.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer stream.Close()

	var sb strings.Builder
	out := &llm.Response{Model: c.Model}
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapErr(err)
		}
		if chunk.Model != "" {
			out.Model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if fr := chunk.Choices[0].FinishReason; fr != "" {
			out.FinishReason = string(fr)
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err := fn(delta); err != nil {
			return nil, err
		}
	}

	out.Text = strings.TrimSpace(sb.String())
	if out.Text == "" {
		return nil, llm.ErrEmptyResponse
	}
	return out, nil
}

// Models lists model IDs from GET /v1/models.
func (c *Client) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	models := make([]llm.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, llm.ModelInfo{Name: m.ID})
	}
	return models, nil
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 120 * time.Second
	}
	return c.Timeout
}

func (c *Client) chatRequest(req llm.Request) openai.ChatCompletionRequest {
	system := req.SystemPrompt
	if system == "" {
		system = c.SystemPrompt
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, t := range req.History {
		role := openai.ChatMessageRoleUser
		if t.Role == llm.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:     c.Model,
		Messages:  messages,
		MaxTokens: int(req.MaxOutputTokens),
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
		// go-openai omits a zero temperature; send the smallest float instead.
		if chatReq.Temperature == 0 {
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}
	return chatReq
}

func wrapErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai api error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai request error %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("openai: %w", err)
}
