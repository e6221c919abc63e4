// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a terminal colour palette.
type Theme struct {
	Primary    lipgloss.Color // headings and the assistant
	Secondary  lipgloss.Color // the user and badges
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color

	// StatusBackground fills the status bar row.
	StatusBackground lipgloss.Color
}

// DefaultTheme returns a dark palette with teal and amber accents.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:          lipgloss.Color("#2DD4BF"),
		Secondary:        lipgloss.Color("#FBBF24"),
		Background:       lipgloss.Color("#111827"),
		Foreground:       lipgloss.Color("#E5E7EB"),
		Muted:            lipgloss.Color("#6B7280"),
		Success:          lipgloss.Color("#4ADE80"),
		Warning:          lipgloss.Color("#FB923C"),
		Error:            lipgloss.Color("#F87171"),
		Border:           lipgloss.Color("#374151"),
		StatusBackground: lipgloss.Color("#1F2937"),
	}
}

// Styles are the rendered forms shared by every view.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style

	// Transcript styles.
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Excerpt        lipgloss.Style // retrieved excerpt, indented with a left rule
	Badge          lipgloss.Style // chat mode and chunk markers
}

// NewStyles builds styles from theme, falling back to DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	bold := lipgloss.NewStyle().Bold(true)
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	bordered := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)

	return &Styles{
		theme: theme,

		Title:    bold.Foreground(theme.Primary),
		Subtitle: bold.Foreground(theme.Secondary),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: bold.Foreground(theme.Background).Background(theme.Primary),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Warning:  fg(theme.Warning),

		InputField: bordered.Padding(0, 1),
		StatusBar:  fg(theme.Muted).Background(theme.StatusBackground).Padding(0, 1),
		Help:       fg(theme.Muted).Italic(true),
		Border:     bordered,

		UserLabel:      bold.Foreground(theme.Secondary),
		AssistantLabel: bold.Foreground(theme.Primary),
		Excerpt: fg(theme.Muted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(theme.Border).
			PaddingLeft(1),
		Badge: lipgloss.NewStyle().
			Foreground(theme.Background).
			Background(theme.Secondary).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles for DefaultTheme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
