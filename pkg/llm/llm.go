package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrEmptyPrompt   = errors.New("prompt is empty")
	ErrEmptyResponse = errors.New("no response from model")
	ErrUnsupported   = errors.New("operation not supported by provider")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role
	Text string
}

type Request struct {
	Prompt          string
	SystemPrompt    string
	History         []Turn
	Temperature     *float32
	MaxOutputTokens int32
}

// Validate rejects requests that would send an empty prompt.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Response struct {
	Text         string `json:"text"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// ChunkFunc receives streamed text. Returning an error aborts the stream.
type ChunkFunc func(chunk string) error

// LLM is the interface any model client must implement to be used by the commands.
type LLM interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request, fn ChunkFunc) (*Response, error)
	Models(ctx context.Context) ([]ModelInfo, error)
}
