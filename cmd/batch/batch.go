package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/shared"
	"github.com/afeedhshaji/gemcli/config"
	"github.com/afeedhshaji/gemcli/internal/batch"
	"github.com/afeedhshaji/gemcli/internal/prompt"
	"github.com/afeedhshaji/gemcli/pkg/llm"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

const fileFlag = "file"
const concurrencyFlag = "concurrency"

var errNoPrompts = errors.New("no prompts found")

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Send one prompt per line of a file",
		Flags: append(shared.GetCommonFlags(),
			&cli.StringFlag{
				Name:    fileFlag,
				Aliases: []string{"f"},
				Usage:   "Prompt file, - for stdin",
				Value:   "-",
			},
			&cli.IntFlag{
				Name:    concurrencyFlag,
				Aliases: []string{"c"},
				Usage:   "Requests in flight (default 4) [$BATCH_CONCURRENCY]",
			},
			&cli.BoolFlag{
				Name:    shared.JSONFlag,
				Aliases: []string{"j"},
				Usage:   "Print JSON Lines instead of text blocks",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, m, cleanup, err := shared.Setup(ctx, cmd, applyConcurrency)
			if err != nil {
				return err
			}
			defer cleanup()

			prompts, err := readPrompts(cmd.String(fileFlag), os.Stdin)
			if err != nil {
				return err
			}

			log.InfoMsg("Sending %d prompts to %s (concurrency %d)\n", len(prompts), cfg.Model, cfg.Concurrency)
			return Run(ctx, m, shared.Template(cfg), prompts, cfg.Concurrency, cmd.Bool(shared.JSONFlag), shared.Stdout(cmd))
		},
	}
}

// applyConcurrency runs before validation so --concurrency 0 is rejected.
func applyConcurrency(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(concurrencyFlag) {
		cfg.Concurrency = int(cmd.Int(concurrencyFlag))
	}
}

// Run sends every prompt, prints the results in input order and reports
// how many failed.
func Run(ctx context.Context, m llm.LLM, tmpl llm.Request, prompts []string, concurrency int, asJSON bool, w io.Writer) error {
	if len(prompts) == 0 {
		return errNoPrompts
	}
	results := batch.Run(ctx, m, tmpl, prompts, concurrency)
	if err := batch.Write(w, results, asJSON); err != nil {
		return err
	}
	if n := batch.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d prompts failed", n, len(results))
	}
	return nil
}

// readPrompts reads path, or stdin when path is "-".
func readPrompts(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open prompt file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return prompt.ReadBatch(r)
}
