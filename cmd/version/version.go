package version

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/shared"
)

var Version = "unknown"

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Program version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(shared.Stdout(cmd), Version)
			return err
		},
		Flags: []cli.Flag{},
	}
}
