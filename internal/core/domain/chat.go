package domain

// Role identifies the author of a chat message.
type Role string

// Chat message roles understood by every completion provider.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn sent to a completion model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatMode selects how a question is answered.
type ChatMode string

const (
	// ChatModeRAG answers only from retrieved document excerpts.
	ChatModeRAG ChatMode = "rag"

	// ChatModeGeneral answers as a general assistant without document context.
	ChatModeGeneral ChatMode = "general"
)

// String returns the string representation.
func (m ChatMode) String() string {
	return string(m)
}

// ChatRequest is a single question, optionally scoped to a document.
type ChatRequest struct {
	// DocumentID scopes retrieval. Empty means general chat.
	DocumentID string `json:"document_id,omitempty"`

	// Message is the user's question.
	Message string `json:"message"`
}

// RetrievedChunk is a chunk selected by similarity search.
type RetrievedChunk struct {
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Index   int     `json:"chunk_index"`
	Score   float64 `json:"score"`
}

// ChatEventType names the kind of a chat event.
type ChatEventType string

// Chat event kinds, in the order a well-formed stream produces them.
const (
	ChatEventStart ChatEventType = "start"
	ChatEventChunk ChatEventType = "chunk"
	ChatEventEnd   ChatEventType = "end"
	ChatEventError ChatEventType = "error"
)

// ChatEvent is one element of a streamed answer.
type ChatEvent struct {
	Type ChatEventType

	// Content carries the token text for chunk events.
	Content string

	// Err is set for error events only.
	Err error
}

// ChatStream is a live answer.
// Events is closed after the last event; an error event, if any, is always last.
type ChatStream struct {
	// Mode is the mode selected for this answer.
	Mode ChatMode

	// Sources are the excerpts the answer was grounded on (RAG mode only).
	Sources []RetrievedChunk

	// Events delivers chunk events followed by at most one error event.
	Events <-chan ChatEvent
}

// ChatAnswer is a fully collected answer.
type ChatAnswer struct {
	Response       string           `json:"response"`
	Mode           ChatMode         `json:"mode"`
	RelevantChunks []RetrievedChunk `json:"relevant_chunks"`
}

// IngestResult describes a processed upload.
type IngestResult struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
	Status      string `json:"status"`
}

// IngestStatusProcessed is reported once a document is fully stored.
const IngestStatusProcessed = "processed"
