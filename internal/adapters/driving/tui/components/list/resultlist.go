// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cassation/internal/core/domain"
)

// noChambre is displayed for decisions stored without a chamber.
const noChambre = "(no chamber)"

// ResultList displays decisions in a navigable list.
type ResultList struct {
	results  []domain.DecisionResult
	offset   int
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
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

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No decisions")
	}

	lines := make([]string, 0, len(r.results)+2)
	header := fmt.Sprintf("Decisions %d-%d", r.offset+1, r.offset+len(r.results))
	lines = append(lines, r.styles.Subtitle.Render(header), "")

	// Each entry spans two lines.
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.results) {
		end = len(r.results)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	return strings.Join(lines, "\n")
}

// renderResult formats one decision with its chamber, date and a snippet.
func (r *ResultList) renderResult(index int, result *domain.DecisionResult) string {
	d := &result.Decision

	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	head := fmt.Sprintf("%s%s", indicator, d.TextID)
	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(head)
	} else {
		titleLine = r.styles.Normal.Render(head)
	}
	titleLine += "  " + r.styles.ChambreLabel(d.Chambre, noChambre)
	if d.DateDecision != nil {
		titleLine += "  " + r.styles.Date.Render(d.DateDecision.Format("2006-01-02"))
	}
	if result.Score > 0 {
		titleLine += "  " + r.styles.Score.Render(fmt.Sprintf("%.3f", result.Score))
	}

	preview := d.Titre
	if preview == "" {
		preview = d.Contenu
	}
	preview = Truncate(strings.Join(strings.Fields(preview), " "), r.width-6)

	return titleLine + "\n" + r.styles.Snippet.Render(preview)
}

// SetResults replaces the page shown; offset is the page's position in
// the full result set.
func (r *ResultList) SetResults(results []domain.DecisionResult, offset int) {
	r.results = results
	r.offset = offset
	r.selected = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.DecisionResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.DecisionResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetSize sets the list dimensions.
func (r *ResultList) SetSize(width, height int) {
	r.width = width
	r.height = height
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if n < 20 {
		n = 20
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
