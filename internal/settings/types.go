package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Name identifies a setting and doubles as its persisted key
type Name string

// Kind is the value type of a setting
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindEnum
	KindPath
	KindColor
	KindStrings
	KindHotkey
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindEnum:
		return "enum"
	case KindPath:
		return "path"
	case KindColor:
		return "color"
	case KindStrings:
		return "strings"
	case KindHotkey:
		return "hotkey"
	default:
		return "unknown"
	}
}

// Encoder is the video codec used for recordings
type Encoder string

const (
	EncoderH264 Encoder = "h264"
	EncoderH265 Encoder = "h265"
)

// VideoFormat is the recording container
type VideoFormat string

const (
	VideoFormatMOV VideoFormat = "mov"
	VideoFormatMP4 VideoFormat = "mp4"
)

// AudioFormat is the audio codec used for recordings
type AudioFormat string

const (
	AudioFormatMP3  AudioFormat = "mp3"
	AudioFormatAAC  AudioFormat = "aac"
	AudioFormatALAC AudioFormat = "alac"
	AudioFormatFLAC AudioFormat = "flac"
	AudioFormatOpus AudioFormat = "opus"
)

// Lossless reports whether the format ignores the bitrate quality setting
func (f AudioFormat) Lossless() bool {
	return f == AudioFormatALAC || f == AudioFormatFLAC
}

// AudioQuality is the bitrate tier for lossy audio formats
type AudioQuality string

const (
	AudioQualityNormal  AudioQuality = "normal"
	AudioQualityGood    AudioQuality = "good"
	AudioQualityHigh    AudioQuality = "high"
	AudioQualityExtreme AudioQuality = "extreme"

	// AudioQualityLossless is only ever written by the audio format rule
	AudioQualityLossless AudioQuality = "lossless"
)

// Bitrate returns the target bitrate in kbps, or 0 for lossless
func (q AudioQuality) Bitrate() int {
	switch q {
	case AudioQualityNormal:
		return 128
	case AudioQualityGood:
		return 192
	case AudioQualityHigh:
		return 256
	case AudioQualityExtreme:
		return 320
	default:
		return 0
	}
}

// PixelFormat is the capture pixel format
type PixelFormat string

const (
	PixelFormatDefault    PixelFormat = "default"
	PixelFormatBGRA32     PixelFormat = "bgra32"
	PixelFormatYUV420P8V  PixelFormat = "yuv420p8v"
	PixelFormatYUV420P8F  PixelFormat = "yuv420p8f"
	PixelFormatYUV420P10V PixelFormat = "yuv420p10v"
	PixelFormatYUV420P10F PixelFormat = "yuv420p10f"
)

// BackgroundType is what fills the area behind captured windows
type BackgroundType string

const (
	BackgroundWallpaper BackgroundType = "wallpaper"
	BackgroundClear     BackgroundType = "clear"
	BackgroundBlack     BackgroundType = "black"
	BackgroundWhite     BackgroundType = "white"
	BackgroundGray      BackgroundType = "gray"
	BackgroundCustom    BackgroundType = "custom"
)

// Color is an RGBA color with channels in [0,1]
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Black is the default custom background color
var Black = Color{A: 1}

// Valid reports whether every channel is a finite value in [0,1]
func (c Color) Valid() bool {
	for _, ch := range []float64{c.R, c.G, c.B, c.A} {
		if math.IsNaN(ch) || ch < 0 || ch > 1 {
			return false
		}
	}
	return true
}

// Hex renders the color as #rrggbbaa
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B), to8(c.A))
}

// Equal compares colors within the precision of an 8-bit channel
func (c Color) Equal(o Color) bool {
	const eps = 1.0 / 512
	return math.Abs(c.R-o.R) < eps && math.Abs(c.G-o.G) < eps &&
		math.Abs(c.B-o.B) < eps && math.Abs(c.A-o.A) < eps
}

func to8(ch float64) uint8 {
	return uint8(math.Round(ch * 255))
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" or "r,g,b[,a]" with float channels
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("color %q: want 3 or 4 channels", s)
	}
	ch := []float64{0, 0, 0, 1}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		ch[i] = f
	}
	c := Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
	if !c.Valid() {
		return Color{}, fmt.Errorf("color %q: channels must be within 0..1", s)
	}
	return c, nil
}

func parseHexColor(h string) (Color, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("color #%s: bad length", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color #%s: %w", h, err)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}
