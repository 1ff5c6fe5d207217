package settings

import (
	"reflect"
)

type op int

const (
	opSet op = iota
	opReset
	opLoad
)

// txn stages the writes of one mutation so they commit as a unit
type txn struct {
	base   map[Name]any
	staged map[Name]any
	order  []Name
	cause  Name
	op     op
}

func newTxn(base map[Name]any, cause Name, o op) *txn {
	return &txn{
		base:   base,
		staged: make(map[Name]any),
		cause:  cause,
		op:     o,
	}
}

func (t *txn) get(name Name) any {
	if v, ok := t.staged[name]; ok {
		return v
	}
	if v, ok := t.base[name]; ok {
		return v
	}
	return byName[name].Default
}

func (t *txn) bool(name Name) bool {
	b, _ := t.get(name).(bool)
	return b
}

func (t *txn) put(name Name, v any) {
	if _, ok := t.staged[name]; !ok {
		t.order = append(t.order, name)
	}
	t.staged[name] = v
}

// changed reports whether the staged value differs from the committed one
func (t *txn) changed(name Name) bool {
	old, ok := t.base[name]
	if !ok {
		old = byName[name].Default
	}
	return !reflect.DeepEqual(old, t.staged[name])
}

// A guard rejects a direct write that a consistency rule would immediately override.
type guard func(t *txn, v any) error

var guards = map[Name]guard{
	KeyEncoder: func(t *txn, v any) error {
		if t.bool(KeyWithAlpha) && v != EncoderH265 {
			return invalid(KeyEncoder, v, "alpha channel recording requires h265")
		}
		return nil
	},
	KeyVideoFormat: func(t *txn, v any) error {
		if t.bool(KeyWithAlpha) && v != VideoFormatMOV {
			return invalid(KeyVideoFormat, v, "alpha channel recording requires mov")
		}
		return nil
	},
	KeyBackground: func(t *txn, v any) error {
		if v == BackgroundClear && !t.bool(KeyWithAlpha) {
			return invalid(KeyBackground, v, "a clear background requires alpha channel recording")
		}
		return nil
	},
	KeyAudioQuality: func(t *txn, v any) error {
		if v == AudioQualityLossless {
			return invalid(KeyAudioQuality, v, "lossless is selected by the audio format")
		}
		if f, _ := t.get(KeyAudioFormat).(AudioFormat); f.Lossless() {
			return invalid(KeyAudioQuality, v, "quality is fixed while a lossless audio format is selected")
		}
		return nil
	},
	KeyShowOnDock: func(t *txn, v any) error {
		if v == false && !t.bool(KeyShowMenubar) {
			return invalid(KeyShowOnDock, v, "the menu bar icon is hidden, so the dock icon must stay visible")
		}
		return nil
	},
	KeyShowMenubar: func(t *txn, v any) error {
		if v == false && !t.bool(KeyShowOnDock) {
			return invalid(KeyShowMenubar, v, "the dock icon is hidden, so the menu bar icon must stay visible")
		}
		return nil
	},
}

// A rule pushes state forward from its trigger to the settings it writes.
// Writes made by a rule never trigger further rules.
type rule struct {
	trigger Name
	writes  []Name
	apply   func(t *txn)
}

// rules run in table order: alpha before audio.
var rules = []rule{
	{
		trigger: KeyWithAlpha,
		writes:  []Name{KeyEncoder, KeyVideoFormat, KeyBackground},
		apply:   applyAlpha,
	},
	{
		trigger: KeyAudioFormat,
		writes:  []Name{KeyAudioQuality, KeyLossyAudioQuality},
		apply:   applyAudioFormat,
	},
}

func applyAlpha(t *txn) {
	if t.bool(KeyWithAlpha) {
		if t.get(KeyEncoder) != EncoderH265 {
			t.put(KeyEncoder, EncoderH265)
		}
		if t.get(KeyVideoFormat) != VideoFormatMOV {
			t.put(KeyVideoFormat, VideoFormatMOV)
		}
		return
	}
	if t.get(KeyBackground) == BackgroundClear {
		t.put(KeyBackground, BackgroundWallpaper)
	}
}

func applyAudioFormat(t *txn) {
	format, _ := t.get(KeyAudioFormat).(AudioFormat)
	quality, _ := t.get(KeyAudioQuality).(AudioQuality)

	if format.Lossless() {
		if quality != AudioQualityLossless {
			t.put(KeyLossyAudioQuality, quality)
			t.put(KeyAudioQuality, AudioQualityLossless)
		}
		return
	}
	if quality == AudioQualityLossless {
		t.put(KeyAudioQuality, t.get(KeyLossyAudioQuality))
	}
}

// resetPinned stages what a reset of a pinned setting still restores. The
// setting itself keeps its pinned value.
func resetPinned(t *txn, name Name) {
	if name == KeyAudioQuality {
		if f, _ := t.get(KeyAudioFormat).(AudioFormat); f.Lossless() {
			t.put(KeyLossyAudioQuality, byName[KeyLossyAudioQuality].Default)
		}
	}
}

// runRules applies the rules triggered by the cause, or every rule when loading
func runRules(t *txn) {
	for _, r := range rules {
		if t.op == opLoad || r.trigger == t.cause {
			r.apply(t)
		}
	}
}

// normalize repairs persisted state that violates the invariants
func normalize(t *txn) {
	runRules(t)
	if !t.bool(KeyShowOnDock) && !t.bool(KeyShowMenubar) {
		t.put(KeyShowOnDock, true)
	}
	dedupeHotkeys(t)
}

// dedupeHotkeys unbinds every action whose combo is already taken by an
// earlier action in HotkeyActions order
func dedupeHotkeys(t *txn) {
	seen := make(map[string]bool, len(HotkeyActions))
	for _, action := range HotkeyActions {
		name := HotkeyKey(action)
		combo, _ := t.get(name).(string)
		if combo == "" {
			continue
		}
		if seen[combo] {
			t.put(name, "")
			continue
		}
		seen[combo] = true
	}
}
