package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/batch"
	"github.com/afeedhshaji/gemcli/cmd/chat"
	"github.com/afeedhshaji/gemcli/cmd/generate"
	"github.com/afeedhshaji/gemcli/cmd/models"
	"github.com/afeedhshaji/gemcli/cmd/serve"
	"github.com/afeedhshaji/gemcli/cmd/shared"
	"github.com/afeedhshaji/gemcli/cmd/version"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "gemcli",
		Usage:     "Send prompts to a Gemini-compatible REST endpoint",
		ArgsUsage: "[prompt...]",
		Flags:     append(shared.GetCommonFlags(), generate.GetFlags()...),
		Action:    generate.Action,
		Commands: []*cli.Command{
			generate.GetCommand(),
			chat.GetCommand(),
			batch.GetCommand(),
			models.GetCommand(),
			serve.GetCommand(),
			version.GetCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}
