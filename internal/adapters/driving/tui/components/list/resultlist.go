// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ExcerptList displays the retrieved excerpts behind an answer.
type ExcerptList struct {
	excerpts []domain.RetrievedChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewExcerptList creates a new excerpt list component.
func NewExcerptList(s *styles.Styles) *ExcerptList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ExcerptList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (r *ExcerptList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ExcerptList) Update(msg tea.Msg) (*ExcerptList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the list.
func (r *ExcerptList) View() string {
	if len(r.excerpts) == 0 {
		return r.styles.Muted.Render("No excerpts (general chat)")
	}

	lines := make([]string, 0, len(r.excerpts)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.excerpts))), "")

	// Each excerpt takes two lines
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.excerpts))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderExcerpt(i, &r.excerpts[i]))
	}

	return strings.Join(lines, "\n")
}

func (r *ExcerptList) renderExcerpt(index int, ex *domain.RetrievedChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	header := fmt.Sprintf("%s[Excerpt %d] chunk %d", indicator, index+1, ex.Index)
	score := fmt.Sprintf("%.3f", ex.Score)

	var headerLine string
	if index == r.selected {
		headerLine = r.styles.Selected.Render(header + "  " + score)
	} else {
		headerLine = r.styles.Normal.Render(header+"  ") + r.styles.Muted.Render(score)
	}

	maxPreview := r.width - 6
	if maxPreview < 20 {
		maxPreview = 20
	}
	preview := strings.Join(strings.Fields(ex.Content), " ")
	if runes := []rune(preview); len(runes) > maxPreview {
		preview = string(runes[:maxPreview-3]) + "..."
	}

	return headerLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// SetExcerpts replaces the list contents.
func (r *ExcerptList) SetExcerpts(excerpts []domain.RetrievedChunk) {
	r.excerpts = excerpts
	r.selected = 0
}

// Excerpts returns the current excerpts.
func (r *ExcerptList) Excerpts() []domain.RetrievedChunk {
	return r.excerpts
}

// Selected returns the index of the selected excerpt.
func (r *ExcerptList) Selected() int {
	return r.selected
}

// SelectedExcerpt returns the selected excerpt, or nil if the list is empty.
func (r *ExcerptList) SelectedExcerpt() *domain.RetrievedChunk {
	if r.selected < 0 || r.selected >= len(r.excerpts) {
		return nil
	}
	return &r.excerpts[r.selected]
}

// MoveUp moves selection up.
func (r *ExcerptList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ExcerptList) MoveDown() {
	if r.selected < len(r.excerpts)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ExcerptList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of excerpts.
func (r *ExcerptList) Count() int {
	return len(r.excerpts)
}

// IsEmpty reports whether the list is empty.
func (r *ExcerptList) IsEmpty() bool {
	return len(r.excerpts) == 0
}
