package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest .txt files dropped into a folder",
	Long: `Uploads every .txt file in the folder, then keeps documents in step with it:
new or edited files are re-ingested under a stable id, removed files are deleted.
Without an argument the watch.dir setting is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var watchOnce bool

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "ingest the current files and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		dir = settings.Watch.Dir
	}
	if dir == "" {
		return errors.New("no folder given and watch.dir is not set")
	}

	w, err := watch.New(dir, documentService)
	if err != nil {
		return err
	}

	if watchOnce {
		n := w.Scan(cmd.Context())
		cmd.Printf("Ingested %d files from %s\n", n, w.Dir())
		return nil
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Dir())
	return w.Run(cmd.Context())
}

// startWatcher runs a folder watcher in the background until ctx ends.
func startWatcher(ctx context.Context, dir string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	w, err := watch.New(dir, documentService)
	if err != nil {
		return fmt.Errorf("failed to watch folder: %w", err)
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("watcher stopped: %v", err)
		}
	}()
	return nil
}
