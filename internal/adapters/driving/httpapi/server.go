package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultMaxUploadBytes caps the size of an uploaded document.
const DefaultMaxUploadBytes = 10 << 20

// Server serves the REST, SSE and WebSocket API.
type Server struct {
	ports          *Ports
	engine         *gin.Engine
	upgrader       websocket.Upgrader
	maxUploadBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes overrides the upload size cap.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewServer creates the API server and registers its routes.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		ports:          ports,
		engine:         gin.New(),
		maxUploadBytes: DefaultMaxUploadBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API carries no credentials, so any origin may connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(gin.Recovery(), requestID(), requestLogger())
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		docs := api.Group("/documents")
		docs.POST("/upload", s.handleUpload)
		docs.GET("", s.handleListDocuments)
		docs.GET("/:id", s.handleGetDocument)
		docs.DELETE("/:id", s.handleDeleteDocument)

		chat := api.Group("/chat")
		chat.POST("/message", s.handleChatMessage)
		chat.POST("/stream", s.handleChatStream)
		chat.GET("/recommendations", s.handleRecommendations)
	}

	r.GET("/ws/chat", s.handleWebSocket)
}

// Handler returns the HTTP handler for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
