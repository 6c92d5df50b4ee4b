package models

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/shared"
	"github.com/afeedhshaji/gemcli/pkg/llm"
)

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List the models the endpoint exposes",
		Flags: shared.GetCommonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, m, cleanup, err := shared.Setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return Run(ctx, m, shared.Stdout(cmd))
		},
	}
}

// Run prints one model per line with its display name when known.
func Run(ctx context.Context, m llm.LLM, w io.Writer) error {
	models, err := m.Models(ctx)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, mi := range models {
		fmt.Fprintf(tw, "%s\t%s\n", mi.Name, mi.DisplayName)
	}
	return tw.Flush()
}
