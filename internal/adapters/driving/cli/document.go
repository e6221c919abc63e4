package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"docs"},
	Short:   "Manage uploaded documents",
	Long:    `Upload, list, view, or delete documents.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Upload .txt files",
	Long: `Normalises, chunks, and embeds each file, then stores it as a new document.
Use --id to replace an existing document with a single file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentAdd,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var (
	documentJSON      bool
	documentReplaceID string
)

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentAddCmd.Flags().StringVar(&documentReplaceID, "id", "", "replace the document with this id")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if documentReplaceID != "" && len(args) > 1 {
		return errors.New("--id accepts a single file")
	}

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		result, err := documentService.Ingest(cmd.Context(), &domain.RawDocument{
			ID:       documentReplaceID,
			Filename: filepath.Base(path),
			MIMEType: "text/plain",
			Content:  content,
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}

		cmd.Printf("Uploaded %s\n", result.Filename)
		cmd.Printf("  ID:     %s\n", result.DocumentID)
		cmd.Printf("  Chunks: %d\n", result.ChunksCount)
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		if docs == nil {
			docs = []domain.DocumentSummary{}
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:     %s\n", docs[i].Filename)
		cmd.Printf("    Uploaded: %s\n", docs[i].UploadTime.Format("2006-01-02 15:04:05"))
		cmd.Printf("    Chunks:   %d\n", docs[i].ChunksCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:     %s\n", doc.Filename)
	cmd.Printf("  Uploaded: %s\n", doc.UploadTime.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Chunks:   %d\n", doc.Metadata.TotalChunks)
	cmd.Printf("  Size:     %d bytes\n", doc.Metadata.SourceSize)
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	for _, c := range doc.Chunks {
		cmd.Printf("--- chunk %d (%s) ---\n", c.Index, c.ID)
		cmd.Println(c.Content)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}
