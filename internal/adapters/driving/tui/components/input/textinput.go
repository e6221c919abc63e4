// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// MaxQuestionLength caps a typed question.
const MaxQuestionLength = 2000

// PromptInput wraps a bubbles textinput for typing chat questions.
type PromptInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewPromptInput creates a new prompt input component.
func NewPromptInput(s *styles.Styles) *PromptInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Focus()
	ti.CharLimit = MaxQuestionLength
	ti.Width = 50

	return &PromptInput{
		textinput: ti,
		styles:    s,
		label:     "You: ",
		width:     50,
	}
}

// Init starts the cursor blinking.
func (p *PromptInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *PromptInput) Update(msg tea.Msg) (*PromptInput, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the input with its label.
func (p *PromptInput) View() string {
	label := p.styles.UserLabel.Render(p.label)
	field := p.styles.InputField.Render(p.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (p *PromptInput) Value() string {
	return p.textinput.Value()
}

// SetValue sets the input value.
func (p *PromptInput) SetValue(value string) {
	p.textinput.SetValue(value)
}

// SetPlaceholder changes the hint shown when empty.
func (p *PromptInput) SetPlaceholder(text string) {
	p.textinput.Placeholder = text
}

// Placeholder returns the hint shown when empty.
func (p *PromptInput) Placeholder() string {
	return p.textinput.Placeholder
}

// Focus sets focus on the input.
func (p *PromptInput) Focus() tea.Cmd {
	return p.textinput.Focus()
}

// Blur removes focus from the input.
func (p *PromptInput) Blur() {
	p.textinput.Blur()
}

// Focused returns whether the input is focused.
func (p *PromptInput) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the input.
func (p *PromptInput) SetWidth(width int) {
	p.width = width
	// Account for label, border, and padding
	inputWidth := width - lipgloss.Width(p.label) - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.textinput.Width = inputWidth
}

// Width returns the current width.
func (p *PromptInput) Width() int {
	return p.width
}

// Reset clears the input.
func (p *PromptInput) Reset() {
	p.textinput.Reset()
}
