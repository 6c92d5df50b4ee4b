package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/muesli/cancelreader"

	"github.com/afeedhshaji/gemcli/internal/prompt"
	"github.com/afeedhshaji/gemcli/pkg/llm"
)

const promptMarker = "> "

// Session keeps the conversation history between turns.
type Session struct {
	LLM      llm.LLM
	Template llm.Request
	Stream   bool
	History  []llm.Turn
}

func New(m llm.LLM, tmpl llm.Request, stream bool) *Session {
	return &Session{LLM: m, Template: tmpl, Stream: stream}
}

// Send asks the model with the current history. The history only grows on success.
func (s *Session) Send(ctx context.Context, text string, onChunk llm.ChunkFunc) (*llm.Response, error) {
	req := s.Template
	req.Prompt = text
	req.History = s.History

	var (
		resp *llm.Response
		err  error
	)
	if s.Stream && onChunk != nil {
		resp, err = s.LLM.Stream(ctx, req, onChunk)
	} else {
		resp, err = s.LLM.Generate(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	s.History = append(s.History,
		llm.Turn{Role: llm.RoleUser, Text: text},
		llm.Turn{Role: llm.RoleModel, Text: resp.Text},
	)
	return resp, nil
}

func (s *Session) Reset() { s.History = nil }

// Run reads one message per line from in until EOF, /exit or cancellation.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, promptMarker)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := prompt.Clean(scanner.Text())
		if line == "" {
			fmt.Fprint(out, promptMarker)
			continue
		}

		switch line {
		case "/exit", "/quit":
			return nil
		case "/reset":
			s.Reset()
			fmt.Fprintln(out, "(history cleared)")
		case "/history":
			fmt.Fprintf(out, "(%d turns)\n", len(s.History))
		default:
			s.turn(ctx, line, out)
		}
		fmt.Fprint(out, promptMarker)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

func (s *Session) turn(ctx context.Context, line string, out io.Writer) {
	log.Printf("[chat] turn %d: %q", len(s.History)/2+1, prompt.Label(line))

	streamed := false
	resp, err := s.Send(ctx, line, func(chunk string) error {
		streamed = true
		_, err := fmt.Fprint(out, chunk)
		return err
	})
	if err != nil {
		if streamed {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	if streamed {
		fmt.Fprintln(out)
		return
	}
	fmt.Fprintln(out, resp.Text)
}
