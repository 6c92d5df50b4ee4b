package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/shared"
	"github.com/afeedhshaji/gemcli/internal/prompt"
	"github.com/afeedhshaji/gemcli/pkg/llm"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

// GetFlags returns the flags specific to one-shot generation.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  shared.StreamFlag,
			Usage: "Print the response as it is generated",
		},
		&cli.BoolFlag{
			Name:    shared.JSONFlag,
			Aliases: []string{"j"},
			Usage:   "Print the full response (text, finish reason, usage) as JSON",
		},
	}
}

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Send one prompt and print the reply (default command)",
		ArgsUsage: "[prompt...]",
		Description: "The prompt is built from the arguments and piped stdin.\n" +
			"With neither, \"" + prompt.Default + "\" is sent.",
		Flags:  append(shared.GetCommonFlags(), GetFlags()...),
		Action: Action,
	}
}

// Action is shared with the root command.
func Action(ctx context.Context, cmd *cli.Command) error {
	cfg, m, cleanup, err := shared.Setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	text, err := prompt.Compose(cmd.Args().Slice(), os.Stdin, prompt.StdinIsTerminal())
	if err != nil {
		return err
	}

	req := shared.Template(cfg)
	req.Prompt = text
	return Run(ctx, m, req, cmd.Bool(shared.StreamFlag), cmd.Bool(shared.JSONFlag), shared.Stdout(cmd))
}

// Run sends req and prints the outcome to w.
func Run(ctx context.Context, m llm.LLM, req llm.Request, stream, asJSON bool, w io.Writer) error {
	if stream && !asJSON {
		resp, err := m.Stream(ctx, req, func(chunk string) error {
			_, err := fmt.Fprint(w, chunk)
			return err
		})
		if err != nil {
			return fmt.Errorf("generating: %w", err)
		}
		log.UsageMsg(resp)
		_, err = fmt.Fprintln(w)
		return err
	}

	resp, err := m.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generating: %w", err)
	}
	log.UsageMsg(resp)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err = fmt.Fprintln(w, resp.Text)
	return err
}
