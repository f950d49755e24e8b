package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Borgerr/blogthing/internal/blog"
	"github.com/Borgerr/blogthing/internal/content"
	"github.com/Borgerr/blogthing/internal/export"
	"github.com/Borgerr/blogthing/internal/logger"
	"github.com/Borgerr/blogthing/internal/server"
)

const debounceDuration = 500 * time.Millisecond

var watchContent bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Renders every page of the blog to static files",
	Long: `The build command renders the index, every titled post and, with --with-css,
the stylesheet into the output directory (default './public/'). The output
directory is removed first. With --watch it keeps running and rebuilds
whenever the markdown directory changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Close()

		x := export.New(cfg, blog.NewService(cfg, log, nil), log)
		if _, err := x.Build(cmd.Context()); err != nil {
			return err
		}
		if !watchContent {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watch(ctx, cfg.ContentDir, x, log)
	},
}

// watch rebuilds after content changes settle for debounceDuration.
func watch(ctx context.Context, dir string, x *export.Exporter, log *logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", dir, err)
	}
	log.Infow("Watching for changes", "dir", dir)

	var buildTimer *time.Timer
	rebuild := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if buildTimer != nil {
				buildTimer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			// The output directory may live inside the watched one.
			if filepath.Ext(event.Name) != content.SourceExt && filepath.Base(event.Name) != server.StylesheetName {
				continue
			}
			log.Debugw("Change detected", "file", event.Name, "op", event.Op.String())
			if buildTimer != nil {
				buildTimer.Stop()
			}
			buildTimer = time.AfterFunc(debounceDuration, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case <-rebuild:
			log.Info("Rebuilding site due to changes")
			if _, err := x.Build(ctx); err != nil {
				log.Errorw("Error during rebuild", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("Watcher error", "error", err)
		}
	}
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "Output directory (default 'public')")
	buildCmd.Flags().BoolVar(&watchContent, "watch", false, "Rebuild whenever the markdown directory changes")
	rootCmd.AddCommand(buildCmd)
}
