package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal chat",
	Long: `Launch the interactive terminal user interface for ragchat.

Chat in general mode or about one of your documents, browse document chunks,
and switch AI providers.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Send / Select
  Ctrl+S   - Show answer sources
  Ctrl+G   - Stop an answer
  Esc      - Back
  ?        - Help (from the menu)
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

var tuiWatchDir string

func init() {
	tuiCmd.Flags().StringVarP(&tuiWatchDir, "watch", "w", "", "ingest .txt files dropped into this folder while running")
	rootCmd.AddCommand(tuiCmd)
}

func tuiPorts() *tui.Ports {
	return &tui.Ports{
		Chat:           chatService,
		Document:       documentService,
		Recommendation: recommendationService,
		Settings:       settingsService,
	}
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Restore the terminal's view of a crash
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = errors.New("tui crashed")
		}
	}()

	app, err := tui.NewApp(tuiPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx := cmd.Context()
	if tuiWatchDir != "" {
		if err := startWatcher(ctx, tuiWatchDir); err != nil {
			return err
		}
	}

	if err := app.WithContext(ctx).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
