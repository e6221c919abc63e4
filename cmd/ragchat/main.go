// Command ragchat chats with uploaded text documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
	"github.com/custodia-labs/ragchat/internal/normalisers/plaintext"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := file.LoadDotEnv(""); err != nil {
		logger.Warn("failed to load .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	file.ApplyEnv(configStore, nil)

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator(0))
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	repo, err := openRepository(context.Background(), &settings.Storage)
	if err != nil {
		return err
	}
	defer repo.Close()

	// AI services are optional so that the settings commands still work
	// with an incomplete configuration.
	aiServices, err := ai.Init(settings)
	if err != nil {
		logger.Warn("AI services unavailable: %v", err)
		aiServices = &ai.InitResult{}
	}
	defer aiServices.Close()
	for _, w := range aiServices.Warnings {
		logger.Debug("%s", w)
	}

	chunk, err := chunker.New(
		chunker.WithMaxChars(settings.Chunker.MaxChars),
		chunker.WithOverlap(settings.Chunker.Overlap),
	)
	if err != nil {
		return fmt.Errorf("invalid chunker settings: %w", err)
	}

	documentService := services.NewDocumentService(repo, plaintext.New(), chunk, aiServices.EmbeddingService)
	retrievalService := services.NewRetrievalService(repo, aiServices.EmbeddingService)
	chatService := services.NewChatService(retrievalService, aiServices.LLMService, services.ChatConfig{
		TopK:        settings.Retrieval.TopK,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
	})
	if prompts, err := file.NewPromptStore(""); err != nil {
		logger.Warn("using built-in prompts: %v", err)
	} else {
		chatService.SetPromptStore(prompts)
	}

	cli.SetServices(&cli.Services{
		Document:       documentService,
		Retrieval:      retrievalService,
		Chat:           chatService,
		Recommendation: services.NewRecommendationService(repo.Documents()),
		Settings:       settingsService,
	})
	cli.SetVersion(version)

	return cli.Execute()
}

func openRepository(ctx context.Context, cfg *domain.StorageSettings) (driven.Repository, error) {
	switch cfg.Backend {
	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return store, nil
	case domain.StorageMemory:
		return memory.NewStore(), nil
	default:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	}
}
