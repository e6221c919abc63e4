package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket API",
	Long: `Start the HTTP API.

Endpoints:
  POST   /api/documents/upload      upload a .txt file (multipart field "file")
  GET    /api/documents             list documents
  GET    /api/documents/:id         show a document
  DELETE /api/documents/:id         delete a document
  POST   /api/chat/message          answer a question
  POST   /api/chat/stream           answer as server-sent events
  GET    /api/chat/recommendations  suggested questions
  GET    /ws/chat                   multi-turn chat over WebSocket

The listen address and watch folder default to the server.addr and watch.dir
settings.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr     string
	serveWatchDir string
	serveMaxBytes int64
)

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().StringVarP(&serveWatchDir, "watch", "w", "", "also ingest .txt files dropped into this folder")
	serveCmd.Flags().Int64Var(&serveMaxBytes, "max-upload", httpapi.DefaultMaxUploadBytes, "upload size limit in bytes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if documentService == nil || chatService == nil || recommendationService == nil {
		return errors.New("services not configured")
	}

	addr, watchDir := serveAddr, serveWatchDir
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			if addr == "" {
				addr = settings.Server.Addr
			}
			if watchDir == "" {
				watchDir = settings.Watch.Dir
			}
		}
	}
	if addr == "" {
		addr = ":8000"
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Document:       documentService,
		Chat:           chatService,
		Recommendation: recommendationService,
	}, httpapi.WithMaxUploadBytes(serveMaxBytes))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if watchDir != "" {
		if err := startWatcher(ctx, watchDir); err != nil {
			return err
		}
	}

	cmd.Printf("Listening on %s\n", addr)
	return server.Run(ctx, addr)
}
