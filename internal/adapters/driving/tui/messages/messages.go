// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewDocuments lists uploaded documents.
	ViewDocuments
	// ViewDocContent shows the chunks of one document.
	ViewDocContent
	// ViewSettings shows the active configuration.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ChatStarted carries the opened stream for a question.
type ChatStarted struct {
	Stream *domain.ChatStream
	Err    error
}

// ChatChunk carries one piece of the streamed answer.
type ChatChunk struct {
	Content string
}

// ChatFinished signals the stream ended, with Err set on failure.
type ChatFinished struct {
	Err error
}

// RecommendationsLoaded carries suggested questions.
type RecommendationsLoaded struct {
	Recommendations []string
	Err             error
}

// DocumentsLoaded carries the document summaries.
type DocumentsLoaded struct {
	Documents []domain.DocumentSummary
	Err       error
}

// DocumentSelected signals a document was chosen for viewing.
type DocumentSelected struct {
	Document domain.DocumentSummary
}

// ChatAboutDocument switches the chat view to a document.
type ChatAboutDocument struct {
	Document domain.DocumentSummary
}

// DocumentContentLoaded carries a full document.
type DocumentContentLoaded struct {
	Document *domain.Document
	Err      error
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals a provider change was persisted.
type SettingsSaved struct {
	Err error
}
