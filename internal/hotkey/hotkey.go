// Package hotkey parses keyboard shortcuts like "cmd+shift+5" into a canonical form.
package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of modifier keys
type Modifier uint8

const (
	Ctrl Modifier = 1 << iota
	Option
	Shift
	Cmd
)

// modifierOrder is the canonical order, matching the macOS menu glyph order
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{Ctrl, "ctrl"},
	{Option, "option"},
	{Shift, "shift"},
	{Cmd, "cmd"},
}

var modifierAliases = map[string]Modifier{
	"ctrl": Ctrl, "control": Ctrl, "⌃": Ctrl,
	"option": Option, "opt": Option, "alt": Option, "⌥": Option,
	"shift": Shift, "⇧": Shift,
	"cmd": Cmd, "command": Cmd, "super": Cmd, "⌘": Cmd,
}

var keyAliases = map[string]string{
	"esc": "escape", "enter": "return", "del": "delete", "backspace": "delete",
	"-": "minus", "=": "equal", ",": "comma", ".": "period", "/": "slash",
	"pgup": "pageup", "pgdn": "pagedown",
}

var namedKeys = map[string]bool{
	"space": true, "return": true, "tab": true, "escape": true, "delete": true,
	"up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "pageup": true, "pagedown": true,
	"minus": true, "equal": true, "comma": true, "period": true, "slash": true,
}

// Combo is a key with its modifiers
type Combo struct {
	Mods Modifier
	Key  string
}

// String renders the canonical form, e.g. "ctrl+shift+cmd+5"
func (c Combo) String() string {
	parts := make([]string, 0, 5)
	for _, m := range modifierOrder {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Parse reads a "+"-separated combo. Modifier names are case-insensitive and
// may appear in any order; exactly one non-modifier key is required.
func Parse(s string) (Combo, error) {
	var c Combo
	if strings.TrimSpace(s) == "" {
		return c, fmt.Errorf("empty key combination")
	}

	for _, tok := range splitTokens(s) {
		t := strings.ToLower(strings.TrimSpace(tok))
		if t == "" {
			return Combo{}, fmt.Errorf("key combination %q has an empty part", s)
		}
		if m, ok := modifierAliases[t]; ok {
			if c.Mods&m != 0 {
				return Combo{}, fmt.Errorf("key combination %q repeats a modifier", s)
			}
			c.Mods |= m
			continue
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("key combination %q has more than one key", s)
		}
		key, ok := normalizeKey(t)
		if !ok {
			return Combo{}, fmt.Errorf("key combination %q: unknown key %q", s, tok)
		}
		c.Key = key
	}

	if c.Key == "" {
		return Combo{}, fmt.Errorf("key combination %q has no key", s)
	}
	if c.Mods == 0 && !isFunctionKey(c.Key) {
		return Combo{}, fmt.Errorf("key combination %q needs a modifier", s)
	}
	return c, nil
}

// splitTokens splits on "+" while allowing "+" itself as the final key
func splitTokens(s string) []string {
	if strings.HasSuffix(s, "++") {
		return append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "plus")
	}
	return strings.Split(s, "+")
}

func normalizeKey(t string) (string, bool) {
	if alias, ok := keyAliases[t]; ok {
		t = alias
	}
	if t == "plus" {
		return t, true
	}
	if len(t) == 1 && (t[0] >= 'a' && t[0] <= 'z' || t[0] >= '0' && t[0] <= '9') {
		return t, true
	}
	if namedKeys[t] || isFunctionKey(t) {
		return t, true
	}
	return "", false
}

func isFunctionKey(t string) bool {
	var n int
	if _, err := fmt.Sscanf(t, "f%d", &n); err != nil {
		return false
	}
	return n >= 1 && n <= 20 && t == fmt.Sprintf("f%d", n)
}

// Canonical parses s and returns its canonical form. An empty string stays empty (unbound).
func Canonical(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	c, err := Parse(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}
