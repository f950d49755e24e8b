package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Borgerr/blogthing/internal/blog"
	"github.com/Borgerr/blogthing/internal/metrics"
	"github.com/Borgerr/blogthing/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve <external-addr>",
	Short: "Serves the markdown directory as a blog",
	Long: `The serve command starts a web server that renders the markdown directory
on every request. external-addr is the address exposed to the internet; the
listening socket opens on it unless --internal-addr is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if len(args) == 1 {
			cfg.ExternalAddr = args[0]
		}
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		var m *metrics.Metrics
		var stats blog.Stats
		if cfg.Metrics.Enabled {
			m = metrics.New()
			stats = m
		}
		srv := server.New(cfg, blog.NewService(cfg, log, stats), m, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			if err := srv.Start(); err != nil {
				return fmt.Errorf("failed to start HTTP server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return eg.Wait()
	},
}

func init() {
	serveCmd.Flags().StringP("internal-addr", "i", "", "Internal address of the webserver. Defaults to external-addr.")
	rootCmd.AddCommand(serveCmd)
}
