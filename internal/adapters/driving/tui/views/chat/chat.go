// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

const (
	generalPlaceholder = "Ask a question..."
	sourcesHeight      = 8
)

// Turn is one exchange entry in the transcript.
type Turn struct {
	Role    domain.Role
	Content string
	Mode    domain.ChatMode
	Sources []domain.RetrievedChunk
	Err     error
	Stopped bool
}

// View is the chat conversation view.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	chatService     driving.ChatService
	recommendations driving.RecommendationService

	ctx    context.Context
	cancel context.CancelFunc
	events <-chan domain.ChatEvent

	input    *input.PromptInput
	viewport viewport.Model
	spinner  spinner.Model
	status   *status.Bar
	excerpts *list.ExcerptList

	document    *domain.DocumentSummary
	turns       []Turn
	suggestions []string
	suggestion  int
	streaming   bool
	stopping    bool
	showSources bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view. The recommendation service may be nil.
func NewView(s *styles.Styles, chatService driving.ChatService, recs driving.RecommendationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Muted

	v := &View{
		styles:          s,
		keymap:          km,
		chatService:     chatService,
		recommendations: recs,
		ctx:             context.Background(),
		input:           input.NewPromptInput(s),
		viewport:        viewport.New(80, 10),
		spinner:         sp,
		status:          status.NewBar(s, km),
		excerpts:        list.NewExcerptList(s),
		width:           80,
		height:          24,
	}
	v.layout()
	return v
}

// WithContext sets the parent context for chat requests.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the prompt and fetches suggested questions.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init(), v.loadRecommendations())
}

func (v *View) loadRecommendations() tea.Cmd {
	if v.recommendations == nil {
		return nil
	}
	return func() tea.Msg {
		recs, err := v.recommendations.Recommendations(v.ctx, domain.DefaultRecommendationLimit)
		return messages.RecommendationsLoaded{Recommendations: recs, Err: err}
	}
}

// SetDocument grounds the conversation in a document and starts a fresh transcript.
// A nil summary switches to general chat.
func (v *View) SetDocument(doc *domain.DocumentSummary) {
	if v.streaming {
		return
	}
	v.turns = nil
	v.excerpts.SetExcerpts(nil)
	v.setDocument(doc)
}

func (v *View) setDocument(doc *domain.DocumentSummary) {
	v.document = doc
	if doc == nil {
		v.status.SetDocument("")
		v.input.SetPlaceholder(generalPlaceholder)
	} else {
		v.status.SetDocument(doc.Filename)
		v.input.SetPlaceholder(fmt.Sprintf("Ask about %s...", doc.Filename))
	}
	v.refresh()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RecommendationsLoaded:
		if msg.Err == nil {
			v.suggestions = msg.Recommendations
			v.suggestion = 0
			v.refresh()
		}
		return v, nil

	case messages.ChatStarted:
		return v.handleStarted(msg)

	case messages.ChatChunk:
		if n := len(v.turns); n > 0 {
			v.turns[n-1].Content += msg.Content
		}
		v.refresh()
		return v, waitForEvent(v.events)

	case messages.ChatFinished:
		v.finish(msg.Err)
		return v, nil

	case spinner.TickMsg:
		if !v.streaming {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		v.stop()
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(keyStr, v.keymap.Stop):
		v.stop()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Sources):
		v.showSources = !v.showSources
		v.layout()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ClearDocument):
		if !v.streaming && v.document != nil {
			v.setDocument(nil)
		}
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Send):
		return v.send()

	case keyStr == "tab":
		if len(v.turns) == 0 && len(v.suggestions) > 0 {
			v.input.SetValue(v.suggestions[v.suggestion])
			v.suggestion = (v.suggestion + 1) % len(v.suggestions)
		}
		return v, nil

	case keyStr == "pgup" || keyStr == "pgdown":
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// send starts answering the typed question.
func (v *View) send() (*View, tea.Cmd) {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.streaming || v.chatService == nil {
		return v, nil
	}

	req := domain.ChatRequest{Message: question}
	if v.document != nil {
		req.DocumentID = v.document.ID
	}

	v.input.Reset()
	v.turns = append(v.turns,
		Turn{Role: domain.RoleUser, Content: question},
		Turn{Role: domain.RoleAssistant},
	)
	v.streaming = true
	v.status.SetState(status.StateStreaming)
	v.refresh()

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	svc := v.chatService

	start := func() tea.Msg {
		stream, err := svc.Stream(ctx, req)
		return messages.ChatStarted{Stream: stream, Err: err}
	}
	return v, tea.Batch(start, v.spinner.Tick)
}

func (v *View) handleStarted(msg messages.ChatStarted) (*View, tea.Cmd) {
	if msg.Err != nil || msg.Stream == nil {
		err := msg.Err
		if err == nil {
			err = errors.New("no stream")
		}
		v.finish(err)
		return v, nil
	}

	if n := len(v.turns); n > 0 {
		v.turns[n-1].Mode = msg.Stream.Mode
		v.turns[n-1].Sources = msg.Stream.Sources
	}
	v.excerpts.SetExcerpts(msg.Stream.Sources)
	v.events = msg.Stream.Events
	v.refresh()
	return v, waitForEvent(v.events)
}

// waitForEvent reads the next chunk or the end of the stream.
func waitForEvent(events <-chan domain.ChatEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		for ev := range events {
			switch ev.Type {
			case domain.ChatEventChunk:
				return messages.ChatChunk{Content: ev.Content}
			case domain.ChatEventError:
				return messages.ChatFinished{Err: ev.Err}
			case domain.ChatEventStart, domain.ChatEventEnd:
			}
		}
		return messages.ChatFinished{}
	}
}

// stop cancels the answer in flight; the stream drains to ChatFinished.
func (v *View) stop() {
	if !v.streaming || v.cancel == nil {
		return
	}
	v.stopping = true
	v.cancel()
}

func (v *View) finish(err error) {
	stopped := v.stopping
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.events = nil
	v.streaming = false
	v.stopping = false

	if n := len(v.turns); n > 0 {
		last := &v.turns[n-1]
		switch {
		case stopped:
			last.Stopped = true
		case err != nil:
			last.Err = err
		}
	}

	if err != nil && !stopped {
		v.status.SetState(status.StateError)
		v.status.SetMessage(err.Error())
	} else {
		v.status.SetState(status.StateReady)
		v.status.SetMessage("")
	}
	v.refresh()
}

// refresh re-renders the transcript into the viewport.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.renderSuggestions()
	}

	width := max(v.viewport.Width-2, 20)
	body := v.styles.Normal.Width(width)

	var b strings.Builder
	for i, turn := range v.turns {
		if i > 0 {
			b.WriteString("\n")
		}

		if turn.Role == domain.RoleUser {
			b.WriteString(v.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(body.Render(turn.Content))
			b.WriteString("\n")
			continue
		}

		b.WriteString(v.styles.AssistantLabel.Render("Assistant"))
		if turn.Mode != "" {
			b.WriteString(" " + v.styles.Badge.Render(turn.Mode.String()))
		}
		b.WriteString("\n")

		switch {
		case turn.Content != "":
			b.WriteString(body.Render(turn.Content))
			b.WriteString("\n")
		case v.streaming && i == len(v.turns)-1:
			b.WriteString(v.spinner.View() + v.styles.Muted.Render(" thinking"))
			b.WriteString("\n")
		}

		if turn.Stopped {
			b.WriteString(v.styles.Muted.Render("(stopped)"))
			b.WriteString("\n")
		}
		if turn.Err != nil {
			b.WriteString(v.styles.Error.Render("Error: " + turn.Err.Error()))
			b.WriteString("\n")
		}
		if len(turn.Sources) > 0 && !v.showSources {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d sources (ctrl+s to show)", len(turn.Sources))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (v *View) renderSuggestions() string {
	var b strings.Builder
	if v.document != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Answers are grounded in %s.", v.document.Filename)))
	} else {
		b.WriteString(v.styles.Muted.Render("General chat. Pick a document from the Documents view to ask about it."))
	}
	b.WriteString("\n\n")

	if len(v.suggestions) == 0 {
		return b.String()
	}

	b.WriteString(v.styles.Subtitle.Render("Try asking"))
	b.WriteString("\n")
	for _, s := range v.suggestions {
		b.WriteString(v.styles.Excerpt.Render("• " + s))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[tab] use a suggestion"))
	return b.String()
}

// View renders the chat view.
func (v *View) View() string {
	var b strings.Builder

	title := "Chat"
	if v.document != nil {
		title = "Chat: " + v.document.Filename
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n")

	if v.showSources {
		b.WriteString(v.excerpts.View())
		b.WriteString("\n")
	}

	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.status.View())

	return b.String()
}

// layout sizes the transcript viewport around the fixed chrome.
func (v *View) layout() {
	// title, blank, input (bordered), status
	reserved := 2 + 3 + 1 + 1
	if v.showSources {
		reserved += sourcesHeight + 1
	}

	v.viewport.Width = max(v.width, 20)
	v.viewport.Height = max(v.height-reserved, 3)
	v.input.SetWidth(v.width)
	v.status.SetWidth(v.width)
	v.excerpts.SetDimensions(v.width, sourcesHeight)
	v.refresh()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

// Turns returns the transcript.
func (v *View) Turns() []Turn {
	return v.turns
}

// Document returns the grounding document, or nil in general chat.
func (v *View) Document() *domain.DocumentSummary {
	return v.document
}

// Streaming reports whether an answer is in flight.
func (v *View) Streaming() bool {
	return v.streaming
}

// ShowingSources reports whether the excerpts panel is visible.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Suggestions returns the loaded question suggestions.
func (v *View) Suggestions() []string {
	return v.suggestions
}
