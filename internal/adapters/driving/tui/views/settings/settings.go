// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var errNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionEmbedding
	SectionLLM
)

// Key constants for key handling.
const (
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// View shows the active configuration and switches AI providers.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error

	section      Section
	selected     int
	focusedField int

	apiKeyInput textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	apiKeyInput := textinput.New()
	apiKeyInput.Placeholder = "Enter API key"
	apiKeyInput.EchoMode = textinput.EchoPassword
	apiKeyInput.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		apiKeyInput:     apiKeyInput,
	}
}

// Init loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsLoaded{Err: errNoSettingsService}
		}
		settings, err := v.settingsService.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.settings = msg.Settings
			v.err = nil
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.backToOverview()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionEmbedding, SectionLLM:
		return v.handleProviderKeys(msg)
	}

	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < 1 {
			v.selected++
		}
	case keyEnter:
		if v.settings == nil {
			return v, nil
		}
		if v.selected == 0 {
			v.section = SectionEmbedding
		} else {
			v.section = SectionLLM
		}
		v.selected = v.currentProviderIndex()
	}
	return v, nil
}

// handleProviderKeys drives both provider pickers; they differ only in
// their provider list and the service call that saves the choice.
func (v *View) handleProviderKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	providers := v.providers()
	if v.selected < 0 || v.selected >= len(providers) {
		v.selected = 0
	}

	if v.focusedField == 1 {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.focusedField = 0
			v.apiKeyInput.Blur()
			return v, nil
		case keyEnter:
			return v, v.saveProvider(providers[v.selected], v.apiKeyInput.Value())
		default:
			var cmd tea.Cmd
			v.apiKeyInput, cmd = v.apiKeyInput.Update(msg)
			return v, cmd
		}
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(providers)-1 {
			v.selected++
		}
	case keyTab:
		if providers[v.selected].RequiresAPIKey() {
			v.focusedField = 1
			return v, v.apiKeyInput.Focus()
		}
	case keyEnter:
		provider := providers[v.selected]
		if provider.RequiresAPIKey() {
			v.focusedField = 1
			return v, v.apiKeyInput.Focus()
		}
		return v, v.saveProvider(provider, "")
	}
	return v, nil
}

func (v *View) providers() []domain.AIProvider {
	if v.section == SectionLLM {
		return domain.AllLLMProviders()
	}
	return domain.AllEmbeddingProviders()
}

func (v *View) currentProviderIndex() int {
	if v.settings == nil {
		return 0
	}
	current := v.settings.Embedding.Provider
	if v.section == SectionLLM {
		current = v.settings.LLM.Provider
	}
	for i, p := range v.providers() {
		if p == current {
			return i
		}
	}
	return 0
}

// saveProvider persists the choice with the provider's default model.
func (v *View) saveProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	section := v.section
	return func() tea.Msg {
		if v.settingsService == nil {
			return messages.SettingsSaved{Err: errNoSettingsService}
		}
		if section == SectionLLM {
			model := domain.DefaultLLMModels()[provider]
			return messages.SettingsSaved{Err: v.settingsService.SetLLMProvider(provider, model, apiKey)}
		}
		model := domain.DefaultEmbeddingModels()[provider]
		return messages.SettingsSaved{Err: v.settingsService.SetEmbeddingProvider(provider, model, apiKey)}
	}
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.focusedField = 0
	v.apiKeyInput.SetValue("")
	v.apiKeyInput.Blur()
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionEmbedding:
		b.WriteString(v.renderProviderSelect("Select Embedding Provider", v.settings.Embedding.Provider,
			domain.DefaultEmbeddingModels()))
	case SectionLLM:
		b.WriteString(v.renderProviderSelect("Select LLM Provider", v.settings.LLM.Provider,
			domain.DefaultLLMModels()))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder
	s := v.settings

	items := []struct {
		label      string
		value      string
		configured bool
	}{
		{
			label:      "Embedding Provider",
			value:      fmt.Sprintf("%s (%s)", s.Embedding.Provider.Description(), s.Embedding.Model),
			configured: s.Embedding.IsConfigured(),
		},
		{
			label:      "LLM Provider",
			value:      fmt.Sprintf("%s (%s)", s.LLM.Provider.Description(), s.LLM.Model),
			configured: s.LLM.IsConfigured(),
		},
	}

	for i, item := range items {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		line := fmt.Sprintf("%s%s: %s", indicator, item.label, item.value)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		if item.configured {
			b.WriteString(" " + v.styles.Success.Render("[configured]"))
		} else {
			b.WriteString(" " + v.styles.Warning.Render("[needs API key]"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	storage := s.Storage.Backend.String()
	if s.Storage.Backend == domain.StorageSQLite && s.Storage.DataDir != "" {
		storage += " (" + s.Storage.DataDir + ")"
	}
	for _, row := range [][2]string{
		{"Storage", storage},
		{"Chunking", fmt.Sprintf("%d chars, %d overlap", s.Chunker.MaxChars, s.Chunker.Overlap)},
		{"Retrieval", fmt.Sprintf("top %d excerpts", s.Retrieval.TopK)},
		{"Server", s.Server.Addr},
	} {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-10s %s", row[0], row[1])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderProviderSelect(title string, current domain.AIProvider, models map[domain.AIProvider]string) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n\n")

	providers := v.providers()
	for i, provider := range providers {
		active := i == v.selected && v.focusedField == 0
		indicator := "  "
		if active {
			indicator = "> "
		}

		line := indicator + provider.Description()
		if active {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		if provider == current {
			b.WriteString(v.styles.Success.Render(" (current)"))
		}
		b.WriteString("\n")

		if model, ok := models[provider]; ok {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    Model: %s", model)))
			b.WriteString("\n")
		}
	}

	if v.selected >= 0 && v.selected < len(providers) && providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(v.apiKeyInput.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderHelp() string {
	if v.section == SectionOverview {
		return v.styles.Help.Render("[j/k] navigate  [enter] change  [esc] back")
	}
	if v.focusedField == 1 {
		return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
	}
	return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
}
