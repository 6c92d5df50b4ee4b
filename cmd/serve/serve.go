package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/afeedhshaji/gemcli/cmd/shared"
	"github.com/afeedhshaji/gemcli/internal/server"
	"github.com/afeedhshaji/gemcli/pkg/log"
)

const addrFlag = "addr"

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Expose the configured model over HTTP",
		Flags: append(shared.GetCommonFlags(),
			&cli.StringFlag{
				Name:    addrFlag,
				Aliases: []string{"a"},
				Usage:   "Listen address (default :8080) [$LISTEN_ADDR]",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, m, cleanup, err := shared.Setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if cmd.IsSet(addrFlag) {
				cfg.ListenAddr = cmd.String(addrFlag)
			}

			log.InfoMsg("Serving %s on %s\n", cfg.Model, cfg.ListenAddr)
			router := server.NewRouter(m, shared.Template(cfg), accessLog(cmd.Bool(shared.VerboseFlag)))
			return Run(ctx, cfg.ListenAddr, router)
		},
	}
}

// accessLog points gin at stderr, leaving stdout to command output.
// Request logs are only written when verbose.
func accessLog(verbose bool) io.Writer {
	gin.DefaultWriter = os.Stderr
	gin.DefaultErrorWriter = os.Stderr
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
		return nil
	}
	return os.Stderr
}

// Run serves h until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.InfoMsg("Server stopped\n")
	return nil
}
