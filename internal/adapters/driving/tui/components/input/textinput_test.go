package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchInput(t *testing.T) {
	in := NewSearchInput(nil)
	assert.True(t, in.Focused())
	assert.Empty(t, in.Value())
}

func TestSearchInput_Typing(t *testing.T) {
	in := NewSearchInput(nil)

	in, _ = in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bail")})

	assert.Equal(t, "bail", in.Value())
	assert.Contains(t, in.View(), "Search:")
}

func TestSearchInput_FocusAndReset(t *testing.T) {
	in := NewSearchInput(nil)
	in.SetValue("preavis")

	in.Blur()
	assert.False(t, in.Focused())
	in.Focus()
	assert.True(t, in.Focused())

	in.Reset()
	assert.Empty(t, in.Value())
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantSearch  string
		wantChambre *string
	}{
		{name: "terms only", line: "  bail  commercial ", wantSearch: "bail commercial"},
		{name: "chambre first", line: "chambre:CIV1 bail", wantSearch: "bail", wantChambre: ptr("CIV1")},
		{name: "chambre last", line: "bail Chambre:SOC", wantSearch: "bail", wantChambre: ptr("SOC")},
		{name: "chambre only", line: "chambre:empty", wantSearch: "", wantChambre: ptr("empty")},
		{name: "bare prefix ignored", line: "chambre: bail", wantSearch: "bail"},
		{name: "last chambre wins", line: "chambre:SOC chambre:COMM", wantChambre: ptr("COMM")},
		{name: "empty", line: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search, chambre := ParseQuery(tt.line)
			assert.Equal(t, tt.wantSearch, search)
			if tt.wantChambre == nil {
				assert.Nil(t, chambre)
				return
			}
			require.NotNil(t, chambre)
			assert.Equal(t, *tt.wantChambre, *chambre)
		})
	}
}

func ptr(s string) *string { return &s }
