package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/afeedhshaji/gemcli/internal/prompt"
	"github.com/afeedhshaji/gemcli/pkg/llm"
)

type Result struct {
	Index    int
	Prompt   string
	Response *llm.Response
	Err      error
	Elapsed  time.Duration
}

// Run sends every prompt with at most concurrency requests in flight.
// Results keep the input order; a failed prompt does not stop the others.
func Run(ctx context.Context, m llm.LLM, tmpl llm.Request, prompts []string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(prompts))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, p := range prompts {
		results[i] = Result{Index: i, Prompt: p}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			req := tmpl
			req.Prompt = p
			req.History = nil

			start := time.Now()
			resp, err := m.Generate(ctx, req)
			results[i].Response = resp
			results[i].Err = err
			results[i].Elapsed = time.Since(start)
			if err != nil {
				log.Printf("[batch] #%d %q failed: %v", i+1, prompt.Label(p), err)
			} else {
				log.Printf("[batch] #%d %q done in %s", i+1, prompt.Label(p), results[i].Elapsed)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

type jsonResult struct {
	Index     int        `json:"index"`
	Prompt    string     `json:"prompt"`
	Text      string     `json:"text,omitempty"`
	Usage     *llm.Usage `json:"usage,omitempty"`
	Error     string     `json:"error,omitempty"`
	ElapsedMS int64      `json:"elapsed_ms"`
}

// Write prints results as text blocks, or as JSON Lines when asJSON is set.
func Write(w io.Writer, results []Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, r := range results {
			jr := jsonResult{Index: r.Index + 1, Prompt: r.Prompt, ElapsedMS: r.Elapsed.Milliseconds()}
			if r.Err != nil {
				jr.Error = r.Err.Error()
			} else if r.Response != nil {
				jr.Text = r.Response.Text
				u := r.Response.Usage
				jr.Usage = &u
			}
			if err := enc.Encode(jr); err != nil {
				return err
			}
		}
		return nil
	}

	for i, r := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		body := ""
		switch {
		case r.Err != nil:
			body = "error: " + r.Err.Error()
		case r.Response != nil:
			body = r.Response.Text
		}
		if _, err := fmt.Fprintf(w, "### %d: %s\n%s\n", r.Index+1, prompt.Label(r.Prompt), body); err != nil {
			return err
		}
	}
	return nil
}
