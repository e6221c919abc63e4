package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question, optionally about a document",
	Long: `Streams an answer from the configured LLM. With --doc the answer is
grounded in the most relevant excerpts of that document; without it the
assistant answers as a general chat.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [doc-id] [query]",
	Short: "Show the excerpts most similar to a query",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRetrieve,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest questions to ask",
	Args:  cobra.NoArgs,
	RunE:  runRecommend,
}

var (
	askDocumentID  string
	askShowSources bool
	retrieveK      int
	retrieveJSON   bool
	recommendLimit int
)

func init() {
	askCmd.Flags().StringVarP(&askDocumentID, "doc", "d", "", "document to ground the answer in")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the excerpts used")
	retrieveCmd.Flags().IntVarP(&retrieveK, "top", "k", domain.DefaultTopK, "number of excerpts")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", domain.DefaultRecommendationLimit, "maximum suggestions")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(recommendCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	ctx := cmd.Context()
	stream, err := chatService.Stream(ctx, domain.ChatRequest{
		DocumentID: askDocumentID,
		Message:    strings.Join(args, " "),
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if askShowSources && len(stream.Sources) > 0 {
		printExcerpts(cmd, stream.Sources)
		cmd.Println()
	}

	out := cmd.OutOrStdout()
	for ev := range stream.Events {
		switch ev.Type {
		case domain.ChatEventChunk:
			fmt.Fprint(out, ev.Content)
		case domain.ChatEventError:
			cmd.Println()
			return fmt.Errorf("chat failed: %w", ev.Err)
		}
	}
	cmd.Println()

	return ctx.Err()
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	chunks, err := retrievalService.Retrieve(cmd.Context(), args[0], strings.Join(args[1:], " "), retrieveK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		if chunks == nil {
			chunks = []domain.RetrievedChunk{}
		}
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal excerpts: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(chunks) == 0 {
		cmd.Println("No excerpts found.")
		return nil
	}
	printExcerpts(cmd, chunks)
	return nil
}

func printExcerpts(cmd *cobra.Command, chunks []domain.RetrievedChunk) {
	for i := range chunks {
		cmd.Printf("[%d] chunk %d (score %.4f)\n", i+1, chunks[i].Index, chunks[i].Score)
		cmd.Printf("    %s\n", truncate(oneLine(chunks[i].Content), 200))
	}
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	if recommendationService == nil {
		return errors.New("recommendation service not configured")
	}

	recs, err := recommendationService.Recommendations(cmd.Context(), recommendLimit)
	if err != nil {
		return fmt.Errorf("failed to get recommendations: %w", err)
	}

	for i, r := range recs {
		cmd.Printf("%d. %s\n", i+1, r)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
