package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView       *menu.View
	chatView       *chat.View
	documentsView  *documents.View
	docContentView *doccontent.View
	settingsView   *settings.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keymap:         keymap.DefaultKeyMap(),
		menuView:       menu.NewView(s),
		chatView:       chat.NewView(s, ports.Chat, ports.Recommendation),
		documentsView:  documents.NewView(s, ports.Document),
		docContentView: doccontent.NewView(s, ports.Document),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ragchat"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		return a.forwardKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ChatAboutDocument:
		doc := msg.Document
		a.chatView.SetDocument(&doc)
		return a, a.switchTo(messages.ViewChat)

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg.Document)

	// Chat traffic belongs to the chat view even after navigating away,
	// so an answer in flight keeps draining.
	case messages.ChatStarted, messages.ChatChunk, messages.ChatFinished,
		messages.RecommendationsLoaded, spinner.TickMsg:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentContentLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewDocContent:
			a.docContentView, cmd = a.docContentView.Update(msg)
		case messages.ViewMenu, messages.ViewChat, messages.ViewSettings, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blink) to the active view
	if a.currentView == messages.ViewChat {
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

func (a *App) forwardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewMenu:
		if msg.String() == "?" {
			return a, a.switchTo(messages.ViewHelp)
		}
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		if keymap.Matches(msg.String(), a.keymap.Back) {
			a.currentView = messages.ViewMenu
		}
	}
	return a, cmd
}

// switchTo activates a view and runs its initial command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view

	switch view {
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewDocuments:
		return a.documentsView.Init()
	case messages.ViewSettings:
		a.settingsView.Reset()
		return a.settingsView.Init()
	case messages.ViewMenu, messages.ViewDocContent, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  ?           This help

Chat:
  (type)      Enter a question
  enter       Send
  tab         Use a suggested question
  ctrl+s      Show or hide sources
  ctrl+x      Leave the document, back to general chat
  ctrl+g      Stop the answer
  pgup/pgdn   Scroll the transcript

Documents:
  enter       Actions (chat, show content, delete)
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
