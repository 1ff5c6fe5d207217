package settings

import (
	"strings"

	"recprefs/internal/hotkey"
)

func init() {
	for _, action := range HotkeyActions {
		guards[HotkeyKey(action)] = hotkeyConflict(HotkeyKey(action))
	}
}

// hotkeyConflict rejects a combo that is already bound to another action
func hotkeyConflict(name Name) guard {
	return func(t *txn, v any) error {
		combo, _ := v.(string)
		if combo == "" {
			return nil
		}
		for _, action := range HotkeyActions {
			other := HotkeyKey(action)
			if other != name && t.get(other) == combo {
				return invalid(name, v, "already bound to "+action)
			}
		}
		return nil
	}
}

// Hotkey returns the canonical combo bound to action, or "" when unbound
func (s *Store) Hotkey(action string) string {
	return s.Text(HotkeyKey(action))
}

// Hotkeys returns every action with its binding, including unbound ones
func (s *Store) Hotkeys() map[string]string {
	out := make(map[string]string, len(HotkeyActions))
	for _, action := range HotkeyActions {
		out[action] = s.Hotkey(action)
	}
	return out
}

// BindHotkey binds combo to action. Combos are canonicalized, so "cmd+shift+5"
// and "Shift+Command+5" are the same binding.
func (s *Store) BindHotkey(action, combo string) error {
	return s.Set(HotkeyKey(action), combo)
}

// UnbindHotkey clears the binding of action
func (s *Store) UnbindHotkey(action string) error {
	return s.Reset(HotkeyKey(action))
}

// HotkeyAction returns the action bound to combo
func (s *Store) HotkeyAction(combo string) (string, bool) {
	canonical, err := hotkey.Canonical(strings.TrimSpace(combo))
	if err != nil || canonical == "" {
		return "", false
	}
	for _, action := range HotkeyActions {
		if s.Hotkey(action) == canonical {
			return action, true
		}
	}
	return "", false
}
