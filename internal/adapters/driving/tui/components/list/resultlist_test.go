package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func sampleExcerpts() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{ChunkID: "d_chunk_2", Content: "apples are red", Index: 2, Score: 0.91},
		{ChunkID: "d_chunk_0", Content: "bananas are yellow", Index: 0, Score: 0.42},
		{ChunkID: "d_chunk_1", Content: "cherries are small", Index: 1, Score: 0.10},
	}
}

func TestNewExcerptList(t *testing.T) {
	l := NewExcerptList(nil)

	require.NotNil(t, l)
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.SelectedExcerpt())
	assert.Nil(t, l.Init())
}

func TestExcerptList_EmptyView(t *testing.T) {
	l := NewExcerptList(nil)
	assert.Contains(t, l.View(), "No excerpts")
}

func TestExcerptList_View(t *testing.T) {
	l := NewExcerptList(nil)
	l.SetDimensions(80, 20)
	l.SetExcerpts(sampleExcerpts())

	view := l.View()
	assert.Contains(t, view, "Sources (3)")
	assert.Contains(t, view, "[Excerpt 1] chunk 2")
	assert.Contains(t, view, "0.910")
	assert.Contains(t, view, "apples are red")
}

func TestExcerptList_Navigation(t *testing.T) {
	l := NewExcerptList(nil)
	l.SetExcerpts(sampleExcerpts())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, l.Selected())

	l.MoveDown()
	assert.Equal(t, 2, l.Selected())
	assert.Equal(t, "d_chunk_1", l.SelectedExcerpt().ChunkID)

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, l.Selected())
}

func TestExcerptList_SetExcerptsResetsSelection(t *testing.T) {
	l := NewExcerptList(nil)
	l.SetExcerpts(sampleExcerpts())
	l.MoveDown()

	l.SetExcerpts(sampleExcerpts()[:1])
	assert.Equal(t, 0, l.Selected())
	assert.Equal(t, 1, l.Count())
}

func TestExcerptList_TruncatesPreview(t *testing.T) {
	l := NewExcerptList(nil)
	l.SetDimensions(30, 10)
	l.SetExcerpts([]domain.RetrievedChunk{{Content: strings.Repeat("word ", 50), Score: 0.5}})

	assert.Contains(t, l.View(), "...")
}
