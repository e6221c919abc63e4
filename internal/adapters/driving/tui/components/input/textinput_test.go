package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

func TestNewPromptInput(t *testing.T) {
	p := NewPromptInput(styles.DefaultStyles())

	require.NotNil(t, p)
	assert.True(t, p.Focused())
	assert.Equal(t, "Ask a question...", p.Placeholder())
	assert.Empty(t, p.Value())
}

func TestNewPromptInput_NilStyles(t *testing.T) {
	p := NewPromptInput(nil)
	require.NotNil(t, p)
	assert.NotEmpty(t, p.View())
}

func TestPromptInput_Typing(t *testing.T) {
	p := NewPromptInput(nil)

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	assert.Equal(t, "hi", p.Value())

	p.Reset()
	assert.Empty(t, p.Value())
}

func TestPromptInput_FocusAndBlur(t *testing.T) {
	p := NewPromptInput(nil)

	p.Blur()
	assert.False(t, p.Focused())

	p.Focus()
	assert.True(t, p.Focused())
}

func TestPromptInput_SetWidth(t *testing.T) {
	p := NewPromptInput(nil)

	p.SetWidth(100)
	assert.Equal(t, 100, p.Width())

	p.SetWidth(5)
	assert.Equal(t, 5, p.Width())
}

func TestPromptInput_ValueAndPlaceholder(t *testing.T) {
	p := NewPromptInput(nil)

	p.SetValue("what is this?")
	assert.Equal(t, "what is this?", p.Value())

	p.SetPlaceholder("Ask about notes.txt...")
	assert.Equal(t, "Ask about notes.txt...", p.Placeholder())
}

func TestPromptInput_Init(t *testing.T) {
	assert.NotNil(t, NewPromptInput(nil).Init())
}
