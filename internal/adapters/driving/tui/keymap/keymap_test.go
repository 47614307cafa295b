package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		key     string
		binding key.Binding
	}{
		{"quit", "q", km.Quit},
		{"quit", "ctrl+c", km.Quit},
		{"back", "esc", km.Back},
		{"open", "enter", km.Open},
		{"focus", "/", km.Focus},
		{"next page", "l", km.NextPage},
		{"prev page", "h", km.PrevPage},
		{"down", "j", km.Down},
		{"up", "k", km.Up},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.key, func(t *testing.T) {
			assert.True(t, Matches(tt.key, tt.binding))
		})
	}
}

func TestMatches_Unbound(t *testing.T) {
	km := DefaultKeyMap()
	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("enter", km.Back))
}

func TestHelpGroups(t *testing.T) {
	km := DefaultKeyMap()
	assert.Len(t, km.InputHelp(), 2)
	assert.Len(t, km.ResultsHelp(), 5)
	assert.Len(t, km.DecisionHelp(), 4)
}
