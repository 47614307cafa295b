// Package styles holds the palette and lipgloss styles of the decision
// browser.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette of the decision browser.
type Theme struct {
	// Robe accents titles and the selected result.
	Robe lipgloss.Color

	// Chambre marks chamber labels.
	Chambre lipgloss.Color

	// Date marks decision dates.
	Date lipgloss.Color

	// Text is body text.
	Text lipgloss.Color

	// Dim is secondary text: snippets, scores, hints.
	Dim lipgloss.Color

	// Alert is used for errors.
	Alert lipgloss.Color

	// Rule draws borders and the header underline.
	Rule lipgloss.Color

	// Bar is the status bar background.
	Bar lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() *Theme {
	return &Theme{
		Robe:    lipgloss.Color("#B4637A"),
		Chambre: lipgloss.Color("#7AA2C8"),
		Date:    lipgloss.Color("#C8A96E"),
		Text:    lipgloss.Color("#D8D4CC"),
		Dim:     lipgloss.Color("#7C7A85"),
		Alert:   lipgloss.Color("#E06C75"),
		Rule:    lipgloss.Color("#4A4653"),
		Bar:     lipgloss.Color("#1C1A22"),
	}
}

// Styles are the rendered styles shared by views and components.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style

	// InputField frames the search box.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Chambre renders a chamber label; NoChambre the placeholder shown
	// when a decision has none.
	Chambre   lipgloss.Style
	NoChambre lipgloss.Style

	Date    lipgloss.Style
	Score   lipgloss.Style
	Snippet lipgloss.Style

	// Header is the underlined title of the decision view.
	Header lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Robe),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Chambre),
		Normal:   lipgloss.NewStyle().Foreground(theme.Text),
		Muted:    lipgloss.NewStyle().Foreground(theme.Dim),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Robe),
		Error:    lipgloss.NewStyle().Foreground(theme.Alert),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Rule).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Dim).
			Background(theme.Bar).
			Padding(0, 1),

		Chambre:   lipgloss.NewStyle().Foreground(theme.Chambre),
		NoChambre: lipgloss.NewStyle().Italic(true).Foreground(theme.Dim),
		Date:      lipgloss.NewStyle().Foreground(theme.Date),
		Score:     lipgloss.NewStyle().Faint(true).Foreground(theme.Dim),
		Snippet:   lipgloss.NewStyle().Foreground(theme.Dim).PaddingLeft(4),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(theme.Rule),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ChambreLabel renders label, or placeholder in the NoChambre style when
// label is empty.
func (s *Styles) ChambreLabel(label, placeholder string) string {
	if label == "" {
		return s.NoChambre.Render(placeholder)
	}
	return s.Chambre.Render(label)
}
