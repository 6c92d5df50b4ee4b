package chat

import (
	"context"
	"io"
	"os"

	"github.com/muesli/cancelreader"
	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/shared"
	"github.com/afeedhshaji/gemcli/internal/chat"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive multi-turn conversation",
		Flags: append(shared.GetCommonFlags(),
			&cli.BoolFlag{
				Name:  shared.StreamFlag,
				Usage: "Print replies as they are generated",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, m, cleanup, err := shared.Setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			in, stop := cancellableInput(ctx, os.Stdin)
			defer stop()

			log.InfoMsg("Chatting with %s at %s (/reset, /history, /exit)\n", cfg.Model, cfg.Endpoint)
			session := chat.New(m, shared.Template(cfg), cmd.Bool(shared.StreamFlag))
			return session.Run(ctx, in, shared.Stdout(cmd))
		},
	}
}

// cancellableInput unblocks reads from f once ctx is done. Where f cannot be
// cancelled it is returned as is.
func cancellableInput(ctx context.Context, f *os.File) (io.Reader, func()) {
	cr, err := cancelreader.NewReader(f)
	if err != nil {
		return f, func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cr.Cancel()
		case <-done:
		}
	}()
	return cr, func() {
		close(done)
		cr.Close()
	}
}
