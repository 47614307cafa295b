// Package search provides the query view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cassation/internal/core/domain"
	"github.com/custodia-labs/cassation/internal/core/ports/driving"
)

// DefaultPageSize is the number of decisions fetched per page.
const DefaultPageSize = 20

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	query    driving.QueryService
	ctx      context.Context
	pageSize int

	// current is the query whose page is displayed.
	current domain.DecisionQuery

	width      int
	height     int
	err        error
	focusInput bool // true = typing a query, false = navigating results
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		query:      query,
		ctx:        context.Background(),
		pageSize:   DefaultPageSize,
		width:      80,
		height:     24,
		focusInput: true,
		current:    domain.DecisionQuery{Limit: DefaultPageSize},
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithPageSize overrides the page size.
func (v *View) WithPageSize(n int) *View {
	if n > 0 {
		v.pageSize = n
		v.current.Limit = n
	}
	return v
}

// Init loads the first page of the corpus and its size.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.countCmd(), v.runQuery(v.current))
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.CountLoaded:
		if msg.Err == nil {
			v.statusbar.SetTotal(msg.Total)
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		switch {
		case keymap.Matches(msg.String(), v.keymap.Search):
			search, chambre := input.ParseQuery(v.input.Value())
			q := domain.DecisionQuery{Search: search, Chambre: chambre, Limit: v.pageSize}
			return v, v.runQuery(q)
		case keymap.Matches(msg.String(), v.keymap.Back):
			if len(v.list.Results()) > 0 {
				v.setFocusInput(false)
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Quit):
		return v, tea.Quit
	case keymap.Matches(key, v.keymap.Focus):
		v.setFocusInput(true)
		return v, v.input.Focus()
	case keymap.Matches(key, v.keymap.Open):
		if r := v.list.SelectedResult(); r != nil {
			id := r.Decision.TextID
			return v, func() tea.Msg { return messages.DecisionOpened{TextID: id} }
		}
		return v, nil
	case keymap.Matches(key, v.keymap.NextPage):
		if len(v.list.Results()) < v.pageSize {
			return v, nil
		}
		q := v.current
		q.Offset += v.pageSize
		return v, v.runQuery(q)
	case keymap.Matches(key, v.keymap.PrevPage):
		if v.current.Offset == 0 {
			return v, nil
		}
		q := v.current
		q.Offset -= v.pageSize
		if q.Offset < 0 {
			q.Offset = 0
		}
		return v, v.runQuery(q)
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) setFocusInput(focus bool) {
	v.focusInput = focus
	if focus {
		v.statusbar.SetState(status.StateReady)
		return
	}
	v.input.Blur()
	v.statusbar.SetState(status.StateResults)
}

// runQuery returns a command that executes q against the query service.
func (v *View) runQuery(q domain.DecisionQuery) tea.Cmd {
	if v.query == nil {
		return nil
	}
	v.statusbar.SetState(status.StateSearching)
	ctx := v.ctx
	svc := v.query
	return func() tea.Msg {
		results, err := svc.Query(ctx, q)
		return messages.SearchCompleted{Query: q, Results: results, Err: err}
	}
}

func (v *View) countCmd() tea.Cmd {
	if v.query == nil {
		return nil
	}
	ctx := v.ctx
	svc := v.query
	return func() tea.Msg {
		n, err := svc.Count(ctx)
		return messages.CountLoaded{Total: n, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}
	v.err = nil
	v.current = msg.Query
	v.list.SetResults(msg.Results, msg.Query.Offset)
	v.statusbar.SetResultCount(len(msg.Results))
	v.setFocusInput(len(msg.Results) == 0)
	if v.focusInput {
		v.input.Focus()
	}
}

// View renders the search view.
func (v *View) View() string {
	parts := []string{
		v.styles.Title.Render("cassation"),
		"",
		v.input.View(),
		"",
		v.list.View(),
	}
	body := strings.Join(parts, "\n")

	bodyHeight := lipgloss.Height(body)
	if gap := v.height - bodyHeight - 1; gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return body + "\n" + v.statusbar.View()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.list.SetSize(width, height-8)
	v.statusbar.SetWidth(width)
}

// Current returns the query whose results are displayed.
func (v *View) Current() domain.DecisionQuery {
	return v.current
}

// Results returns the displayed page.
func (v *View) Results() []domain.DecisionResult {
	return v.list.Results()
}

// InputFocused reports whether keys go to the query input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the last query error.
func (v *View) Err() error {
	return v.err
}
