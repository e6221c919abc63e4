package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// defaultRetrieveK is used when a retrieve call does not set k.
const defaultRetrieveK = domain.DefaultTopK

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to search"`
	Query      string `json:"query" jsonschema:"the text to find similar passages for"`
	K          int    `json:"k,omitempty" jsonschema:"maximum number of excerpts to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Excerpts []ExcerptOutput `json:"excerpts"`
	Count    int             `json:"count"`
}

// ExcerptOutput is one retrieved chunk.
type ExcerptOutput struct {
	ChunkID    string  `json:"chunk_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"optional document to ground the answer on"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string          `json:"answer"`
	Mode     string          `json:"mode"`
	Excerpts []ExcerptOutput `json:"excerpts,omitempty"`
}

// ListDocumentsInput is the (empty) input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one uploaded document.
type DocumentOutput struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	UploadTime  string `json:"upload_time"`
	ChunksCount int    `json:"chunks_count"`
}

// RecommendationsInput is the input schema for the recommendations tool.
type RecommendationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of suggestions (default 8)"`
}

// RecommendationsOutput is the output schema for the recommendations tool.
type RecommendationsOutput struct {
	Recommendations []string `json:"recommendations"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of an uploaded document most similar to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question, grounded on an uploaded document when one is given",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents, most recent first",
	}, s.handleListDocuments)

	if s.ports.Recommendation != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "recommendations",
			Description: "Suggest questions to ask about the uploaded documents",
		}, s.handleRecommendations)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.K
	if k <= 0 {
		k = defaultRetrieveK
	}

	chunks, err := s.ports.Retrieval.Retrieve(ctx, input.DocumentID, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	excerpts := toExcerpts(chunks)
	return nil, RetrieveOutput{Excerpts: excerpts, Count: len(excerpts)}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Answer(ctx, domain.ChatRequest{
		DocumentID: input.DocumentID,
		Message:    input.Question,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:   answer.Response,
		Mode:     answer.Mode.String(),
		Excerpts: toExcerpts(answer.RelevantChunks),
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		output.Documents[i] = DocumentOutput{
			DocumentID:  d.ID,
			Filename:    d.Filename,
			UploadTime:  d.UploadTime.Format(time.RFC3339),
			ChunksCount: d.ChunksCount,
		}
	}
	return nil, output, nil
}

// handleRecommendations handles the recommendations tool invocation.
func (s *Server) handleRecommendations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecommendationsInput,
) (*mcp.CallToolResult, RecommendationsOutput, error) {
	recs, err := s.ports.Recommendation.Recommendations(ctx, input.Limit)
	if err != nil {
		return nil, RecommendationsOutput{}, err
	}
	return nil, RecommendationsOutput{Recommendations: recs}, nil
}

func toExcerpts(chunks []domain.RetrievedChunk) []ExcerptOutput {
	out := make([]ExcerptOutput, len(chunks))
	for i, c := range chunks {
		out[i] = ExcerptOutput{
			ChunkID:    c.ChunkID,
			ChunkIndex: c.Index,
			Score:      c.Score,
			Content:    c.Content,
		}
	}
	return out
}
