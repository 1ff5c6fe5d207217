package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	apperrors "recprefs/internal/errors"
	"recprefs/internal/hotkey"
)

// Setting names. Each is also the key the value is persisted under.
const (
	KeyCountdown     Name = "countdown"
	KeyPOSafeDelay   Name = "poSafeDelay"
	KeyShowOnDock    Name = "showOnDock"
	KeyShowMenubar   Name = "showMenubar"
	KeyLaunchAtLogin Name = "launchAtLogin"

	KeyHighlightMouse   Name = "highlightMouse"
	KeyIncludeMenuBar   Name = "includeMenuBar"
	KeyHideDesktopFiles Name = "hideDesktopFiles"
	KeyTrimAfterRecord  Name = "trimAfterRecord"
	KeyMiniStatusBar    Name = "miniStatusBar"
	KeyHideSelf         Name = "hideSelf"
	KeyUserColor        Name = "userColor"

	KeyEncoder       Name = "encoder"
	KeyVideoFormat   Name = "videoFormat"
	KeyAudioFormat   Name = "audioFormat"
	KeyAudioQuality  Name = "audioQuality"
	KeyPixelFormat   Name = "pixelFormat"
	KeyBackground    Name = "background"
	KeyRemuxAudio    Name = "remuxAudio"
	KeyEnableAEC     Name = "enableAEC"
	KeyWithAlpha     Name = "withAlpha"
	KeySaveDirectory Name = "saveDirectory"

	KeyExcludedApps Name = "excludedApps"

	// KeyLossyAudioQuality remembers the last bitrate tier while a lossless format is active
	KeyLossyAudioQuality Name = "lossyAudioQuality"
)

// HotkeyPrefix namespaces the hotkey binding settings
const HotkeyPrefix = "hotkey."

// Hotkey actions that can be bound to a key combination
var HotkeyActions = []string{
	"stop",
	"pauseResume",
	"startWithAudio",
	"startWithScreen",
	"startWithWindow",
	"startWithArea",
	"saveFrame",
	"screenMagnifier",
}

// HotkeyKey returns the setting name holding the binding for action
func HotkeyKey(action string) Name {
	return Name(HotkeyPrefix + action)
}

// Definition declares a setting's type, default and domain
type Definition struct {
	Name    Name
	Kind    Kind
	Default any
	// Choices lists the allowed values of int and enum settings
	Choices []any
	// Internal settings are persisted but cannot be read or written by callers
	Internal bool

	check func(string) bool
}

var bundleIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`)

// ValidBundleID reports whether s looks like a reverse-DNS application identifier
func ValidBundleID(s string) bool {
	return bundleIDPattern.MatchString(s)
}

var userAudioQualities = []any{AudioQualityNormal, AudioQualityGood, AudioQualityHigh, AudioQualityExtreme}

var registry = buildRegistry()

var byName = func() map[Name]*Definition {
	m := make(map[Name]*Definition, len(registry))
	for i := range registry {
		m[registry[i].Name] = &registry[i]
	}
	return m
}()

func buildRegistry() []Definition {
	defs := []Definition{
		{Name: KeyCountdown, Kind: KindInt, Default: 0, Choices: []any{0, 3, 5, 10}},
		{Name: KeyPOSafeDelay, Kind: KindInt, Default: 1, Choices: []any{1, 2, 3, 5}},
		{Name: KeyShowOnDock, Kind: KindBool, Default: true},
		{Name: KeyShowMenubar, Kind: KindBool, Default: false},
		{Name: KeyLaunchAtLogin, Kind: KindBool, Default: false},

		{Name: KeyHighlightMouse, Kind: KindBool, Default: false},
		{Name: KeyIncludeMenuBar, Kind: KindBool, Default: true},
		{Name: KeyHideDesktopFiles, Kind: KindBool, Default: false},
		{Name: KeyTrimAfterRecord, Kind: KindBool, Default: false},
		{Name: KeyMiniStatusBar, Kind: KindBool, Default: false},
		{Name: KeyHideSelf, Kind: KindBool, Default: true},
		{Name: KeyUserColor, Kind: KindColor, Default: Black},

		{Name: KeyEncoder, Kind: KindEnum, Default: EncoderH264,
			Choices: []any{EncoderH264, EncoderH265}},
		{Name: KeyVideoFormat, Kind: KindEnum, Default: VideoFormatMP4,
			Choices: []any{VideoFormatMOV, VideoFormatMP4}},
		{Name: KeyAudioFormat, Kind: KindEnum, Default: AudioFormatAAC,
			Choices: []any{AudioFormatMP3, AudioFormatAAC, AudioFormatALAC, AudioFormatFLAC, AudioFormatOpus}},
		{Name: KeyAudioQuality, Kind: KindEnum, Default: AudioQualityHigh,
			Choices: []any{AudioQualityNormal, AudioQualityGood, AudioQualityHigh,
				AudioQualityExtreme, AudioQualityLossless}},
		{Name: KeyPixelFormat, Kind: KindEnum, Default: PixelFormatDefault,
			Choices: []any{PixelFormatDefault, PixelFormatBGRA32, PixelFormatYUV420P8V,
				PixelFormatYUV420P8F, PixelFormatYUV420P10V, PixelFormatYUV420P10F}},
		{Name: KeyBackground, Kind: KindEnum, Default: BackgroundWallpaper,
			Choices: []any{BackgroundWallpaper, BackgroundClear, BackgroundBlack,
				BackgroundWhite, BackgroundGray, BackgroundCustom}},
		{Name: KeyRemuxAudio, Kind: KindBool, Default: true},
		{Name: KeyEnableAEC, Kind: KindBool, Default: false},
		{Name: KeyWithAlpha, Kind: KindBool, Default: false},
		{Name: KeySaveDirectory, Kind: KindPath, Default: ""},

		{Name: KeyExcludedApps, Kind: KindStrings, Default: []string{}, check: ValidBundleID},

		{Name: KeyLossyAudioQuality, Kind: KindEnum, Default: AudioQualityHigh,
			Choices: userAudioQualities, Internal: true},
	}
	for _, action := range HotkeyActions {
		defs = append(defs, Definition{Name: HotkeyKey(action), Kind: KindHotkey, Default: ""})
	}
	return defs
}

// Lookup returns the definition for a user-visible setting
func Lookup(name Name) (Definition, bool) {
	def, ok := byName[name]
	if !ok || def.Internal {
		return Definition{}, false
	}
	return *def, true
}

// Definitions lists every user-visible setting in registry order
func Definitions() []Definition {
	out := make([]Definition, 0, len(registry))
	for _, def := range registry {
		if !def.Internal {
			out = append(out, def)
		}
	}
	return out
}

func invalid(name Name, v any, reason string) error {
	return fmt.Errorf("%w: %s = %v: %s", apperrors.ErrInvalidValue, name, v, reason)
}

func unknown(name Name) error {
	return fmt.Errorf("%w: %q", apperrors.ErrUnknownSetting, name)
}

// Coerce converts v to the setting's canonical Go type and checks its domain
func (d Definition) Coerce(v any) (any, error) {
	switch d.Kind {
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid(d.Name, v, "want a boolean")
		}
		return b, nil

	case KindInt:
		n, ok := toInt(v)
		if !ok {
			return nil, invalid(d.Name, v, "want an integer")
		}
		for _, c := range d.Choices {
			if c == n {
				return n, nil
			}
		}
		return nil, invalid(d.Name, v, fmt.Sprintf("must be one of %v", d.Choices))

	case KindEnum:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.String {
			return nil, invalid(d.Name, v, "want a string")
		}
		s := strings.ToLower(rv.String())
		for _, c := range d.Choices {
			if reflect.ValueOf(c).String() == s {
				return c, nil
			}
		}
		return nil, invalid(d.Name, v, fmt.Sprintf("must be one of %v", d.Choices))

	case KindPath:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(d.Name, v, "want a path")
		}
		if s == "" {
			return "", nil
		}
		if !filepath.IsAbs(s) {
			return nil, invalid(d.Name, v, "path must be absolute")
		}
		return filepath.Clean(s), nil

	case KindColor:
		var c Color
		switch x := v.(type) {
		case Color:
			c = x
		case *Color:
			if x == nil {
				return nil, invalid(d.Name, v, "want a color")
			}
			c = *x
		default:
			return nil, invalid(d.Name, v, "want a color")
		}
		if !c.Valid() {
			return nil, invalid(d.Name, v, "channels must be within 0..1")
		}
		return c, nil

	case KindStrings:
		var in []string
		switch x := v.(type) {
		case []string:
			in = x
		case []any:
			for _, e := range x {
				s, ok := e.(string)
				if !ok {
					return nil, invalid(d.Name, v, "want a list of strings")
				}
				in = append(in, s)
			}
		default:
			return nil, invalid(d.Name, v, "want a list of strings")
		}
		return d.normalizeList(in)

	case KindHotkey:
		s, ok := v.(string)
		if !ok {
			return nil, invalid(d.Name, v, "want a key combination")
		}
		combo, err := hotkey.Canonical(s)
		if err != nil {
			return nil, invalid(d.Name, v, err.Error())
		}
		return combo, nil
	}
	return nil, invalid(d.Name, v, "unsupported kind")
}

func (d Definition) normalizeList(in []string) ([]string, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, invalid(d.Name, in, "empty entry")
		}
		if d.check != nil && !d.check(s) {
			return nil, invalid(d.Name, s, "malformed entry")
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// cloneValue copies values that alias memory so callers cannot mutate store state
func cloneValue(v any) any {
	if list, ok := v.([]string); ok {
		return append([]string(nil), list...)
	}
	return v
}
