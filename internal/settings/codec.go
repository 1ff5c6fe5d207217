package settings

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// colorArchiveTag prefixes the binary color archive so the format can change later
const colorArchiveTag byte = 1

const colorArchiveLen = 1 + 4*8

// encodeValue serializes a canonical value for persistence
func encodeValue(def Definition, v any) ([]byte, error) {
	if def.Kind == KindColor {
		c, ok := v.(Color)
		if !ok {
			return nil, fmt.Errorf("encode %s: not a color", def.Name)
		}
		return encodeColor(c), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", def.Name, err)
	}
	return data, nil
}

// decodeValue parses a persisted value back into its canonical type
func decodeValue(def Definition, data []byte) (any, error) {
	if def.Kind == KindColor {
		c, err := decodeColor(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", def.Name, err)
		}
		return def.Coerce(c)
	}
	return decodeJSON(def, data)
}

func encodeColor(c Color) []byte {
	buf := make([]byte, colorArchiveLen)
	buf[0] = colorArchiveTag
	for i, ch := range []float64{c.R, c.G, c.B, c.A} {
		binary.LittleEndian.PutUint64(buf[1+i*8:], math.Float64bits(ch))
	}
	return buf
}

func decodeColor(data []byte) (Color, error) {
	if len(data) != colorArchiveLen || data[0] != colorArchiveTag {
		return Color{}, fmt.Errorf("unrecognized color archive (%d bytes)", len(data))
	}
	var ch [4]float64
	for i := range ch {
		ch[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[1+i*8:]))
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

func decodeJSON(def Definition, raw []byte) (any, error) {
	var (
		v   any
		err error
	)
	dec := json.NewDecoder(bytes.NewReader(raw))
	switch def.Kind {
	case KindBool:
		var b bool
		err = dec.Decode(&b)
		v = b
	case KindInt:
		var n int
		err = dec.Decode(&n)
		v = n
	case KindEnum, KindPath, KindHotkey:
		var s string
		err = dec.Decode(&s)
		v = s
	case KindColor:
		v, err = decodeJSONColor(dec)
	case KindStrings:
		var list []string
		err = dec.Decode(&list)
		if list == nil {
			list = []string{}
		}
		v = list
	}
	if err != nil {
		return nil, invalid(def.Name, string(raw), err.Error())
	}
	return def.Coerce(v)
}

// decodeJSONColor requires r, g and b; a missing alpha means opaque, as in ParseValue
func decodeJSONColor(dec *json.Decoder) (Color, error) {
	var in struct {
		R *float64 `json:"r"`
		G *float64 `json:"g"`
		B *float64 `json:"b"`
		A *float64 `json:"a"`
	}
	if err := dec.Decode(&in); err != nil {
		return Color{}, err
	}
	if in.R == nil || in.G == nil || in.B == nil {
		return Color{}, fmt.Errorf("a color needs r, g and b")
	}
	c := Color{R: *in.R, G: *in.G, B: *in.B, A: 1}
	if in.A != nil {
		c.A = *in.A
	}
	return c, nil
}

// DecodeJSON decodes a JSON document into the typed value of a user-visible setting
func DecodeJSON(name Name, raw json.RawMessage) (any, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, unknown(name)
	}
	return decodeJSON(def, raw)
}

// ParseValue converts command-line or chat text into the typed value of a setting
func ParseValue(name Name, text string) (any, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, unknown(name)
	}
	text = strings.TrimSpace(text)

	switch def.Kind {
	case KindBool:
		switch strings.ToLower(text) {
		case "on", "yes", "y":
			return true, nil
		case "off", "no", "n":
			return false, nil
		}
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, invalid(name, text, "want on/off or true/false")
		}
		return b, nil

	case KindInt:
		n, err := strconv.Atoi(strings.TrimSuffix(text, "s"))
		if err != nil {
			return nil, invalid(name, text, "want an integer")
		}
		return def.Coerce(n)

	case KindPath:
		if text == "" {
			return "", nil
		}
		if text == "~" || strings.HasPrefix(text, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("expand home directory: %w", err)
			}
			text = filepath.Join(home, strings.TrimPrefix(text, "~"))
		}
		abs, err := filepath.Abs(text)
		if err != nil {
			return nil, invalid(name, text, err.Error())
		}
		return def.Coerce(abs)

	case KindColor:
		c, err := ParseColor(text)
		if err != nil {
			return nil, invalid(name, text, err.Error())
		}
		return def.Coerce(c)

	case KindStrings:
		list := []string{}
		for _, part := range strings.Split(text, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		return def.Coerce(list)
	}

	return def.Coerce(text)
}

// FormatValue renders a setting value for humans
func FormatValue(v any) string {
	switch x := v.(type) {
	case Color:
		return x.Hex()
	case []string:
		if len(x) == 0 {
			return "(none)"
		}
		return strings.Join(x, ", ")
	case string:
		if x == "" {
			return "(unset)"
		}
		return x
	case nil:
		return "(unknown)"
	}
	return fmt.Sprint(v)
}
