package ui_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/tui/ui"
	"github.com/stretchr/testify/assert"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	assert.NotEmpty(t, km.Attach.Keys())
	assert.NotEmpty(t, km.Validate.Keys())
	assert.NotEmpty(t, km.Proceed.Keys())
	assert.NotEmpty(t, km.Quit.Keys())
	assert.Len(t, km.ShortHelp(), 6)
}

func TestKeyMap_Navigation(t *testing.T) {
	t.Parallel()

	km := ui.DefaultKeyMap()

	tests := []struct {
		key      string
		up, down bool
	}{
		{"up", true, false},
		{"k", true, false},
		{"down", false, true},
		{"j", false, true},
		{"x", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.up, km.IsUp(keyMsg(tt.key)))
			assert.Equal(t, tt.down, km.IsDown(keyMsg(tt.key)))
		})
	}
}

func TestStyles_Status(t *testing.T) {
	t.Parallel()

	s := ui.DefaultStyles()

	assert.Equal(t, s.Success.Render("ok"), s.Status(fieldstore.StatusSuccess).Render("ok"))
	assert.Equal(t, s.Error.Render("bad"), s.Status(fieldstore.StatusError).Render("bad"))
	assert.Equal(t, s.Help.Render("-"), s.Status(fieldstore.StatusNone).Render("-"))
}

func TestStyles_WithWidth(t *testing.T) {
	t.Parallel()

	s := ui.DefaultStyles().WithWidth(100)

	assert.Equal(t, 100, s.App.GetWidth())
	assert.Equal(t, 96, s.Panel.GetWidth())
}
