package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Keys of the settings dictionary exchanged with the template store.
const (
	KeyText           = "text"
	KeyFontFamily     = "font_family"
	KeyFontSize       = "font_size"
	KeyFontBold       = "font_bold"
	KeyFontItalic     = "font_italic"
	KeyColor          = "color"
	KeyOpacity        = "opacity"
	KeyPosition       = "position"
	KeyWatermarkX     = "watermark_x"
	KeyWatermarkY     = "watermark_y"
	KeyRotation       = "rotation"
	KeyEnableShadow   = "enable_shadow"
	KeyEnableOutline  = "enable_outline"
	KeyOutlineColor   = "outline_color"
	KeyOutlineWidth   = "outline_width"
	KeyOutlineOffset  = "outline_offset"
	KeyShadowColor    = "shadow_color"
	KeyShadowOffset   = "shadow_offset"
	KeyShadowBlur     = "shadow_blur"
	KeyImagePath      = "image_path"
	KeyScale          = "scale"
	KeyKeepAspectRate = "keep_aspect_ratio"
)

var (
	DefaultShadow  = ShadowEffect{Color: RGB{64, 64, 64}, Offset: Offset{3, 3}, BlurRadius: 3}
	DefaultOutline = OutlineEffect{Color: ColorBlack, Width: 2}
)

// EncodeSettings serializes a spec into the settings dictionary. scale is
// the current compression scale; watermark_x/watermark_y are always derived
// from the absolute position through it so the two never drift.
func EncodeSettings(spec WatermarkSpec, scale float64) map[string]any {
	m := map[string]any{
		KeyOpacity:  spec.Opacity(),
		KeyPosition: encodePosition(spec.Anchor),
		KeyRotation: spec.RotationDegrees,
	}

	if spec.Kind == KindImage && spec.Image != nil {
		m[KeyImagePath] = spec.Image.SourcePath
		m[KeyScale] = spec.Image.ScalePercent
		m[KeyKeepAspectRate] = spec.Image.KeepAspectRatio
		return m
	}

	t := spec.Text
	if t == nil {
		t = DefaultTextSpec().Text
	}
	m[KeyText] = t.Content
	m[KeyFontFamily] = t.FontFamily
	m[KeyFontSize] = t.FontSizePx
	m[KeyFontBold] = t.Bold
	m[KeyFontItalic] = t.Italic
	m[KeyColor] = t.Color.Hex()

	wx, wy := 0, 0
	if spec.Anchor.IsAbsolute() {
		wx, wy = spec.Anchor.X, spec.Anchor.Y
		if scale > 0 {
			wx = int(math.Round(float64(spec.Anchor.X) * scale))
			wy = int(math.Round(float64(spec.Anchor.Y) * scale))
		}
	}
	m[KeyWatermarkX] = wx
	m[KeyWatermarkY] = wy

	outline := DefaultOutline
	if spec.Effects.Outline != nil {
		outline = *spec.Effects.Outline
	}
	m[KeyEnableOutline] = spec.Effects.Outline != nil
	m[KeyOutlineColor] = outline.Color.Hex()
	m[KeyOutlineWidth] = outline.Width
	m[KeyOutlineOffset] = []int{outline.Offset.DX, outline.Offset.DY}

	shadow := DefaultShadow
	if spec.Effects.Shadow != nil {
		shadow = *spec.Effects.Shadow
	}
	m[KeyEnableShadow] = spec.Effects.Shadow != nil
	m[KeyShadowColor] = shadow.Color.Hex()
	m[KeyShadowOffset] = []int{shadow.Offset.DX, shadow.Offset.DY}
	m[KeyShadowBlur] = shadow.BlurRadius

	return m
}

func encodePosition(a Anchor) any {
	if a.IsAbsolute() {
		return []int{a.X, a.Y}
	}
	if p, ok := PresetFor(a); ok {
		return string(p)
	}
	return map[string]any{ratioKeyX: a.RX, ratioKeyY: a.RY}
}

// DecodeSettings parses a settings dictionary. The polymorphic position
// field is resolved into an Anchor here and nowhere else.
func DecodeSettings(m map[string]any, scale float64) (WatermarkSpec, error) {
	if m == nil {
		return WatermarkSpec{}, fmt.Errorf("%w: empty settings", ErrInvalidSpec)
	}

	var spec WatermarkSpec
	var err error

	if path, ok := m[KeyImagePath]; ok && cast.ToString(path) != "" {
		spec = DefaultImageSpec(cast.ToString(path))
		if v, ok := m[KeyScale]; ok {
			if spec.Image.ScalePercent, err = cast.ToFloat64E(v); err != nil {
				return spec, fieldErr(KeyScale, err)
			}
		}
		if v, ok := m[KeyKeepAspectRate]; ok {
			if spec.Image.KeepAspectRatio, err = cast.ToBoolE(v); err != nil {
				return spec, fieldErr(KeyKeepAspectRate, err)
			}
		}
		if v, ok := m[KeyOpacity]; ok {
			if spec.Image.Opacity, err = toRoundedInt(v); err != nil {
				return spec, fieldErr(KeyOpacity, err)
			}
		}
	} else {
		spec, err = decodeText(m)
		if err != nil {
			return spec, err
		}
	}

	if v, ok := m[KeyRotation]; ok {
		if spec.RotationDegrees, err = toRoundedInt(v); err != nil {
			return spec, fieldErr(KeyRotation, err)
		}
	}

	anchor, err := decodeAnchor(m, scale)
	if err != nil {
		return spec, err
	}
	spec.Anchor = anchor

	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

func decodeText(m map[string]any) (WatermarkSpec, error) {
	spec := DefaultTextSpec()
	t := spec.Text
	var err error

	if v, ok := m[KeyText]; ok {
		t.Content = cast.ToString(v)
	}
	if v, ok := m[KeyFontFamily]; ok && cast.ToString(v) != "" {
		t.FontFamily = cast.ToString(v)
	}
	if v, ok := m[KeyFontSize]; ok {
		if t.FontSizePx, err = cast.ToFloat64E(v); err != nil {
			return spec, fieldErr(KeyFontSize, err)
		}
	}
	if v, ok := m[KeyFontBold]; ok {
		if t.Bold, err = cast.ToBoolE(v); err != nil {
			return spec, fieldErr(KeyFontBold, err)
		}
	}
	if v, ok := m[KeyFontItalic]; ok {
		if t.Italic, err = cast.ToBoolE(v); err != nil {
			return spec, fieldErr(KeyFontItalic, err)
		}
	}
	if v, ok := m[KeyColor]; ok {
		if t.Color, err = ParseColor(v); err != nil {
			return spec, fieldErr(KeyColor, err)
		}
	}
	if v, ok := m[KeyOpacity]; ok {
		if t.Opacity, err = toRoundedInt(v); err != nil {
			return spec, fieldErr(KeyOpacity, err)
		}
	}

	if enabled, _ := cast.ToBoolE(m[KeyEnableOutline]); enabled {
		o := DefaultOutline
		if v, ok := m[KeyOutlineColor]; ok {
			if o.Color, err = ParseColor(v); err != nil {
				return spec, fieldErr(KeyOutlineColor, err)
			}
		}
		if v, ok := m[KeyOutlineWidth]; ok {
			if o.Width, err = toRoundedInt(v); err != nil {
				return spec, fieldErr(KeyOutlineWidth, err)
			}
		}
		if v, ok := m[KeyOutlineOffset]; ok {
			if o.Offset, err = parseOffset(v); err != nil {
				return spec, fieldErr(KeyOutlineOffset, err)
			}
		}
		spec.Effects.Outline = &o
	}

	if enabled, _ := cast.ToBoolE(m[KeyEnableShadow]); enabled {
		s := DefaultShadow
		if v, ok := m[KeyShadowColor]; ok {
			if s.Color, err = ParseColor(v); err != nil {
				return spec, fieldErr(KeyShadowColor, err)
			}
		}
		if v, ok := m[KeyShadowOffset]; ok {
			if s.Offset, err = parseOffset(v); err != nil {
				return spec, fieldErr(KeyShadowOffset, err)
			}
		}
		if v, ok := m[KeyShadowBlur]; ok {
			if s.BlurRadius, err = cast.ToFloat64E(v); err != nil {
				return spec, fieldErr(KeyShadowBlur, err)
			}
		}
		spec.Effects.Shadow = &s
	}

	return spec, nil
}

const (
	ratioKeyX = "rx"
	ratioKeyY = "ry"
)

// decodeAnchor resolves position: a preset name, an {"rx","ry"} ratio
// object, a ratio pair (both values in [0,1] with a fractional part) or a
// source-space pixel pair. With no
// position, the preview-space watermark_x/watermark_y are mapped back
// through scale.
func decodeAnchor(m map[string]any, scale float64) (Anchor, error) {
	if v, ok := m[KeyPosition]; ok && v != nil {
		if s, isString := v.(string); isString {
			if p, ok := ParsePreset(s); ok {
				return p.Anchor(), nil
			}
			return Anchor{}, fieldErr(KeyPosition, fmt.Errorf("unknown preset %q", s))
		}
		if obj, isMap := v.(map[string]any); isMap {
			return decodeRatio(obj)
		}

		pair, err := parsePair(v)
		if err != nil {
			return Anchor{}, fieldErr(KeyPosition, err)
		}
		if isRatioPair(pair) {
			return Relative(pair[0], pair[1]), nil
		}
		return Absolute(int(math.Round(pair[0])), int(math.Round(pair[1]))), nil
	}

	wx, okX := m[KeyWatermarkX]
	wy, okY := m[KeyWatermarkY]
	if okX && okY {
		px, err := cast.ToFloat64E(wx)
		if err != nil {
			return Anchor{}, fieldErr(KeyWatermarkX, err)
		}
		py, err := cast.ToFloat64E(wy)
		if err != nil {
			return Anchor{}, fieldErr(KeyWatermarkY, err)
		}
		if scale <= 0 {
			scale = 1
		}
		return Absolute(int(math.Round(px/scale)), int(math.Round(py/scale))), nil
	}

	return PresetBottomRight.Anchor(), nil
}

func decodeRatio(obj map[string]any) (Anchor, error) {
	rx, okX := obj[ratioKeyX]
	ry, okY := obj[ratioKeyY]
	if !okX || !okY {
		return Anchor{}, fieldErr(KeyPosition, fmt.Errorf("ratio object needs %q and %q", ratioKeyX, ratioKeyY))
	}
	x, err := cast.ToFloat64E(rx)
	if err != nil {
		return Anchor{}, fieldErr(KeyPosition, err)
	}
	y, err := cast.ToFloat64E(ry)
	if err != nil {
		return Anchor{}, fieldErr(KeyPosition, err)
	}
	a := Relative(x, y)
	if err := a.Validate(); err != nil {
		return Anchor{}, err
	}
	return a, nil
}

func isRatioPair(p [2]float64) bool {
	for _, v := range p {
		if v < 0 || v > 1 {
			return false
		}
	}
	return p[0] != math.Trunc(p[0]) || p[1] != math.Trunc(p[1])
}

func parsePair(v any) ([2]float64, error) {
	var out [2]float64
	var items []any

	switch t := v.(type) {
	case []any:
		items = t
	case []int:
		for _, i := range t {
			items = append(items, i)
		}
	case []float64:
		for _, f := range t {
			items = append(items, f)
		}
	case [2]int:
		items = []any{t[0], t[1]}
	case [2]float64:
		items = []any{t[0], t[1]}
	default:
		return out, fmt.Errorf("expected a 2-element array, got %T", v)
	}

	if len(items) != 2 {
		return out, fmt.Errorf("expected a 2-element array, got %d elements", len(items))
	}
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return out, err
		}
		out[i] = f
	}
	return out, nil
}

func parseOffset(v any) (Offset, error) {
	p, err := parsePair(v)
	if err != nil {
		return Offset{}, err
	}
	return Offset{DX: int(math.Round(p[0])), DY: int(math.Round(p[1]))}, nil
}

// ParseColor accepts "#rrggbb", "#rgb", "r,g,b" and [r,g,b] forms.
func ParseColor(v any) (RGB, error) {
	if s, ok := v.(string); ok {
		return parseColorString(s)
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []int:
		for _, i := range t {
			items = append(items, i)
		}
	case []float64:
		for _, f := range t {
			items = append(items, f)
		}
	default:
		return RGB{}, fmt.Errorf("unsupported color value %T", v)
	}
	if len(items) < 3 {
		return RGB{}, fmt.Errorf("color needs 3 components, got %d", len(items))
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		c, err := cast.ToIntE(items[i])
		if err != nil {
			return RGB{}, err
		}
		rgb[i] = uint8(clamp(c, 0, 255))
	}
	return RGB{rgb[0], rgb[1], rgb[2]}, nil
}

func parseColorString(s string) (RGB, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = p
		}
		return ParseColor(items)
	}

	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}

func toRoundedInt(v any) (int, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func fieldErr(key string, err error) error {
	return fmt.Errorf("%w: field %s: %v", ErrInvalidSpec, key, err)
}
