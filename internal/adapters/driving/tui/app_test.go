package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cassation/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cassation/internal/core/domain"
)

type stubQuery struct {
	decision *domain.Decision
}

func (s *stubQuery) Query(context.Context, domain.DecisionQuery) ([]domain.DecisionResult, error) {
	return []domain.DecisionResult{{Decision: *s.decision}}, nil
}

func (s *stubQuery) Get(_ context.Context, textID string) (*domain.Decision, error) {
	if textID != s.decision.TextID {
		return nil, domain.ErrNotFound
	}
	return s.decision, nil
}

func (s *stubQuery) Count(context.Context) (int, error) { return 1, nil }

func newTestApp(t *testing.T) *App {
	t.Helper()
	q := &stubQuery{decision: &domain.Decision{
		TextID:  "JURITEXT000042",
		Chambre: "CHAMBRE_SOCIALE",
		Contenu: "Sur le moyen unique",
	}}
	app, err := NewApp(&Ports{Query: q})
	require.NoError(t, err)
	return app.WithContext(context.Background())
}

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrMissingQueryService)
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingQueryService)
	assert.NoError(t, (&Ports{Query: &stubQuery{}}).Validate())
}

func TestNewApp_RequiresQueryService(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingQueryService)
}

func TestApp_NotReadyUntilSized(t *testing.T) {
	app := newTestApp(t)
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_OpenAndCloseDecision(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(messages.DecisionOpened{TextID: "JURITEXT000042"})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewDecision, app.CurrentView())

	_, _ = app.Update(cmd())
	assert.Contains(t, app.View(), "Sur le moyen unique")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, _ = app.Update(cmd())
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_SearchFlow(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, _ = app.Update(cmd())

	assert.Contains(t, app.View(), "JURITEXT000042")
	assert.Contains(t, app.View(), "CHAMBRE_SOCIALE")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
