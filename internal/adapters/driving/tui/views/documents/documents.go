// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

// ActionOption represents a document action.
type ActionOption int

const (
	ActionChat ActionOption = iota
	ActionShowContent
	ActionDelete
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService

	documents    []domain.DocumentSummary
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		documents:       []domain.DocumentSummary{},
		width:           80,
		height:          24,
	}
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.selected = 0
	v.scrollOffset = 0
	v.showingMenu = false
	v.err = nil
	v.loading = true
	return v.loadDocuments()
}

// loadDocuments returns a command that lists documents.
func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}

		docs, err := v.documentService.List(context.Background())
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		if v.documents == nil {
			v.documents = []domain.DocumentSummary{}
		}
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionChat
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "r":
		v.loading = true
		return v, v.loadDocuments()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionChat {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleMenuSelect handles selection of an action.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	if v.selected >= len(v.documents) {
		return v, nil
	}

	doc := v.documents[v.selected]

	switch v.menuSelected {
	case ActionChat:
		return v, func() tea.Msg {
			return messages.ChatAboutDocument{Document: doc}
		}
	case ActionShowContent:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc}
		}
	case ActionDelete:
		return v, v.deleteDocument(doc.ID)
	case ActionCancel:
	}

	return v, nil
}

// deleteDocument returns a command that deletes the document.
func (v *View) deleteDocument(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: errNoDocumentService}
		}

		err := v.documentService.Delete(context.Background(), docID)
		return messages.DocumentDeleted{DocumentID: docID, Err: err}
	}
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, separator, help, and padding
	reserved := 8
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents uploaded. Use 'ragchat document add <file>'."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.showingMenu {
		b.WriteString(v.renderActionMenu())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.DocumentSummary) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Filename
	if name == "" {
		name = doc.ID
	}

	maxNameLen := v.width/2 - 4
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if runes := []rune(name); len(runes) > maxNameLen {
		name = string(runes[:maxNameLen-3]) + "..."
	}

	meta := fmt.Sprintf("%d chunks  %s", doc.ChunksCount, doc.UploadTime.Format("2006-01-02 15:04"))

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, meta))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxNameLen, name)) +
		v.styles.Muted.Render(meta)
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	if v.selected < len(v.documents) {
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", v.documents[v.selected].Filename)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionChat, "Chat about this"},
		{ActionShowContent, "Show Content"},
		{ActionDelete, "Delete"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.DocumentSummary {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.DocumentSummary {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
