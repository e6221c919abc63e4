// Package cli provides the cobra command tree for ragchat.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Driving ports used by the commands. They are injected by main via SetServices.
var (
	documentService       driving.DocumentService
	retrievalService      driving.RetrievalService
	chatService           driving.ChatService
	recommendationService driving.RecommendationService
	settingsService       driving.SettingsService
)

// verbose enables debug logging.
var verbose bool

// Services holds the driving ports the CLI dispatches to.
type Services struct {
	Document       driving.DocumentService
	Retrieval      driving.RetrievalService
	Chat           driving.ChatService
	Recommendation driving.RecommendationService
	Settings       driving.SettingsService
}

// SetServices injects the application services.
func SetServices(s *Services) {
	documentService = s.Document
	retrievalService = s.Retrieval
	chatService = s.Chat
	recommendationService = s.Recommendation
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat ingests plain text documents, embeds them, and answers questions
grounded in the most relevant excerpts. It serves an HTTP and WebSocket API,
an MCP server, and an interactive terminal UI.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
