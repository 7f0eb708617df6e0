package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/db"
	"github.com/example/railctl/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregation cycle and the HTTP API",
		Long: `Serve runs the aggregation cycle at the configured interval and exposes
ingestion, operator commands and queries under /api/v1.

The config file is re-read at the start of every cycle when it changes;
an invalid edit is logged and the previous configuration stays active.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer db.Close()

			cfg := wire.Config().Current()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			engine := wire.Engine()
			server := wire.HTTPServer()

			errCh := make(chan error, 2)
			go func() { errCh <- engine.Run(ctx) }()
			go func() { errCh <- server.ListenAndServe(ctx, addr) }()

			fmt.Printf("✓ railctl serving on %s (%d sections, cycle every %s)\n",
				addr, len(cfg.Topology.Sections), cfg.Engine.CycleInterval)
			if cfg.Server.JWTSecret == "" {
				fmt.Println("  warning: jwt_secret is empty, command endpoints are unauthenticated")
			}

			// Either side failing stops the other.
			var firstErr error
			for i := 0; i < 2; i++ {
				err := <-errCh
				if err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
					firstErr = err
				}
				stop()
			}
			return firstErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr from config)")

	return cmd
}
