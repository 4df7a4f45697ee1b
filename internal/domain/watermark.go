package domain

import (
	"fmt"
	"strings"
)

type WatermarkKind string

const (
	KindText  WatermarkKind = "text"
	KindImage WatermarkKind = "image"
)

// RGB is an opaque colour; alpha always comes from the watermark opacity.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	ColorWhite = RGB{255, 255, 255}
	ColorBlack = RGB{0, 0, 0}
)

type Offset struct {
	DX, DY int
}

type TextWatermark struct {
	Content    string
	FontFamily string
	FontSizePx float64
	Bold       bool
	Italic     bool
	Color      RGB
	Opacity    int
}

type ImageWatermark struct {
	SourcePath      string
	ScalePercent    float64
	KeepAspectRatio bool
	Opacity         int
}

type ShadowEffect struct {
	Color      RGB
	Offset     Offset
	BlurRadius float64
}

type OutlineEffect struct {
	Color  RGB
	Width  int
	Offset Offset
}

type EffectSpec struct {
	Shadow  *ShadowEffect
	Outline *OutlineEffect
}

// WatermarkSpec describes one watermark instance for one source image.
// Exactly one of Text and Image is set, matching Kind.
type WatermarkSpec struct {
	Kind            WatermarkKind
	Text            *TextWatermark
	Image           *ImageWatermark
	RotationDegrees int
	Anchor          Anchor
	Effects         EffectSpec
}

const (
	DefaultFontFamily    = "Go"
	DefaultFontSizePx    = 36
	DefaultOpacity       = 50
	DefaultScalePercent  = 100
	DefaultWatermarkText = "© Watermark"
)

func DefaultTextSpec() WatermarkSpec {
	return WatermarkSpec{
		Kind: KindText,
		Text: &TextWatermark{
			Content:    DefaultWatermarkText,
			FontFamily: DefaultFontFamily,
			FontSizePx: DefaultFontSizePx,
			Color:      ColorWhite,
			Opacity:    DefaultOpacity,
		},
		Anchor: PresetBottomRight.Anchor(),
	}
}

func DefaultImageSpec(path string) WatermarkSpec {
	return WatermarkSpec{
		Kind: KindImage,
		Image: &ImageWatermark{
			SourcePath:      path,
			ScalePercent:    DefaultScalePercent,
			KeepAspectRatio: true,
			Opacity:         DefaultOpacity,
		},
		Anchor: PresetBottomRight.Anchor(),
	}
}

// Opacity returns the kind-specific opacity in the 0-100 range.
func (s WatermarkSpec) Opacity() int {
	switch s.Kind {
	case KindText:
		if s.Text != nil {
			return s.Text.Opacity
		}
	case KindImage:
		if s.Image != nil {
			return s.Image.Opacity
		}
	}
	return 0
}

// Clone returns a deep copy, so two images never share one spec by identity.
func (s WatermarkSpec) Clone() WatermarkSpec {
	out := s
	if s.Text != nil {
		t := *s.Text
		out.Text = &t
	}
	if s.Image != nil {
		i := *s.Image
		out.Image = &i
	}
	if s.Effects.Shadow != nil {
		sh := *s.Effects.Shadow
		out.Effects.Shadow = &sh
	}
	if s.Effects.Outline != nil {
		o := *s.Effects.Outline
		out.Effects.Outline = &o
	}
	return out
}

func (s WatermarkSpec) WithAnchor(a Anchor) WatermarkSpec {
	out := s.Clone()
	out.Anchor = a
	return out
}

func (s WatermarkSpec) Validate() error {
	if s.RotationDegrees < -180 || s.RotationDegrees > 180 {
		return fmt.Errorf("%w: rotation %d outside [-180,180]", ErrInvalidSpec, s.RotationDegrees)
	}
	if err := s.Anchor.Validate(); err != nil {
		return err
	}

	switch s.Kind {
	case KindText:
		if s.Text == nil {
			return fmt.Errorf("%w: text watermark without text settings", ErrInvalidSpec)
		}
		if s.Text.FontSizePx <= 0 {
			return fmt.Errorf("%w: font size must be positive", ErrInvalidSpec)
		}
		if err := validateOpacity(s.Text.Opacity); err != nil {
			return err
		}
	case KindImage:
		if s.Image == nil {
			return fmt.Errorf("%w: image watermark without image settings", ErrInvalidSpec)
		}
		if strings.TrimSpace(s.Image.SourcePath) == "" {
			return fmt.Errorf("%w: image watermark path is empty", ErrInvalidSpec)
		}
		if s.Image.ScalePercent <= 0 {
			return fmt.Errorf("%w: scale must be positive", ErrInvalidSpec)
		}
		if err := validateOpacity(s.Image.Opacity); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown watermark kind %q", ErrInvalidSpec, s.Kind)
	}

	if o := s.Effects.Outline; o != nil && o.Width < 0 {
		return fmt.Errorf("%w: outline width must not be negative", ErrInvalidSpec)
	}
	if sh := s.Effects.Shadow; sh != nil && sh.BlurRadius < 0 {
		return fmt.Errorf("%w: shadow blur must not be negative", ErrInvalidSpec)
	}
	return nil
}

func validateOpacity(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: opacity %d outside [0,100]", ErrInvalidSpec, v)
	}
	return nil
}
