package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"cmd+shift+5", "shift+cmd+5"},
		{"Command+Control+S", "ctrl+cmd+s"},
		{"alt+cmd+esc", "option+cmd+escape"},
		{"⌘+⇧+a", "shift+cmd+a"},
		{"ctrl+option+shift+cmd+space", "ctrl+option+shift+cmd+space"},
		{"f5", "f5"},
		{"shift+F12", "shift+f12"},
		{"cmd++", "cmd+plus"},
		{"cmd+-", "cmd+minus"},
		{" cmd + k ", "cmd+k"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Canonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"   ",
		"cmd+shift",
		"a",
		"cmd+a+b",
		"cmd+cmd+a",
		"cmd+hyper",
		"cmd++a",
		"f0",
		"f21",
		"f05",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestCombo_String(t *testing.T) {
	c := Combo{Mods: Cmd | Ctrl, Key: "r"}
	assert.Equal(t, "ctrl+cmd+r", c.String())
}
