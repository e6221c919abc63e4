// Package doccontent provides the document content view component for the TUI.
package doccontent

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

// View shows a document chunk by chunk.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService

	summary      domain.DocumentSummary
	document     *domain.Document
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new document content view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		width:           80,
		height:          24,
	}
}

// SetDocument selects the document and loads its chunks.
func (v *View) SetDocument(summary domain.DocumentSummary) tea.Cmd {
	v.summary = summary
	v.document = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadContent(summary.ID)
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadContent returns a command that loads the document.
func (v *View) loadContent(id string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentContentLoaded{Err: errNoDocumentService}
		}

		doc, err := v.documentService.Get(context.Background(), id)
		return messages.DocumentContentLoaded{Document: doc, Err: err}
	}
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		v.wrapContent()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentContentLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.document = msg.Document
		v.err = nil
		v.wrapContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

// wrapContent lays the chunks out as headed, wrapped lines.
func (v *View) wrapContent() {
	v.lines = nil
	if v.document == nil || len(v.document.Chunks) == 0 {
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	for i, chunk := range v.document.Chunks {
		if i > 0 {
			v.lines = append(v.lines, "")
		}
		v.lines = append(v.lines, v.styles.Badge.Render(fmt.Sprintf("chunk %d", chunk.Index)))
		for _, line := range strings.Split(chunk.Content, "\n") {
			v.lines = append(v.lines, wrapLine(line, contentWidth)...)
		}
	}

	if v.scrollOffset > v.maxScrollOffset() {
		v.scrollOffset = v.maxScrollOffset()
	}
}

func wrapLine(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}

	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, help, and padding
	reserved := 7
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := v.summary.Filename
	if title == "" {
		title = "Document Content"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")

	if v.document != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s  %d chunks  %d bytes",
			v.document.ID, len(v.document.Chunks), v.document.Metadata.SourceSize)))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading content..."))
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

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No content)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visibleLines; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > visibleLines {
		b.WriteString("\n")
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			min(v.scrollOffset+visibleLines, len(v.lines)),
			len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// Document returns the loaded document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Lines returns the rendered content lines.
func (v *View) Lines() []string {
	return v.lines
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
