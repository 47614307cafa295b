// Package decision provides the view that displays a single decision.
package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
)

// headerLines is the height reserved above and below the viewport.
const headerLines = 6

// View is the decision content view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar
	viewport  viewport.Model

	query driving.QueryService
	ctx   context.Context

	textID   string
	decision *domain.Decision
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a new decision view.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	sb := status.NewBar(s, km)
	sb.SetState(status.StateViewing)

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: sb,
		viewport:  viewport.New(80, 24-headerLines),
		query:     query,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load resets the view and returns a command fetching textID.
func (v *View) Load(textID string) tea.Cmd {
	v.textID = textID
	v.decision = nil
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	v.statusbar.SetMessage(textID)

	if v.query == nil {
		v.loading = false
		v.err = fmt.Errorf("query service not available")
		return nil
	}
	ctx := v.ctx
	svc := v.query
	return func() tea.Msg {
		d, err := svc.Get(ctx, textID)
		return messages.DecisionLoaded{Decision: d, Err: err}
	}
}

// Update handles messages for the decision view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DecisionLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.decision = msg.Decision
		v.renderContent()
		return v, nil

	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), v.keymap.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
		case keymap.Matches(msg.String(), v.keymap.Quit):
			return v, tea.Quit
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// renderContent wraps the decision text to the viewport width.
func (v *View) renderContent() {
	if v.decision == nil {
		return
	}
	text := v.decision.Contenu
	if strings.TrimSpace(text) == "" {
		text = "(No content)"
	}
	wrapped := lipgloss.NewStyle().Width(v.viewport.Width).Render(text)
	v.viewport.SetContent(wrapped)
}

// View renders the decision view.
func (v *View) View() string {
	var b strings.Builder

	switch {
	case v.loading:
		b.WriteString(v.styles.Title.Render(v.textID))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("Loading decision..."))
	case v.err != nil:
		b.WriteString(v.styles.Title.Render(v.textID))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err)))
	case v.decision != nil:
		b.WriteString(v.renderHeader())
		b.WriteString("\n")
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%3.0f%%", v.viewport.ScrollPercent()*100)))
	}

	b.WriteString("\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderHeader() string {
	d := v.decision
	title := d.Titre
	if title == "" {
		title = d.TextID
	}

	meta := []string{v.styles.Muted.Render(d.TextID)}
	if d.Chambre != "" {
		meta = append(meta, v.styles.Chambre.Render(d.Chambre))
	}
	if d.DateDecision != nil {
		meta = append(meta, v.styles.Date.Render(d.DateDecision.Format("2006-01-02")))
	}
	if d.Revision != "" {
		meta = append(meta, v.styles.Muted.Render("rev "+d.Revision))
	}

	return v.styles.Header.Width(v.width).Render(title) + "\n" +
		strings.Join(meta, v.styles.Muted.Render("  ·  "))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-headerLines, 1)
	v.statusbar.SetWidth(width)
	v.renderContent()
}

// Decision returns the loaded decision.
func (v *View) Decision() *domain.Decision {
	return v.decision
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
