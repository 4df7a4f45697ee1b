package domain

import (
	"fmt"
	"strings"
)

type AnchorKind int

const (
	AnchorRelative AnchorKind = iota
	AnchorAbsolute
)

// Anchor is either a ratio pair inside the source image or an absolute
// source-space pixel position of the watermark's top-left corner.
type Anchor struct {
	Kind AnchorKind
	RX   float64
	RY   float64
	X    int
	Y    int
}

func Relative(rx, ry float64) Anchor {
	return Anchor{Kind: AnchorRelative, RX: rx, RY: ry}
}

func Absolute(x, y int) Anchor {
	return Anchor{Kind: AnchorAbsolute, X: x, Y: y}
}

func (a Anchor) IsAbsolute() bool {
	return a.Kind == AnchorAbsolute
}

func (a Anchor) Point() Point {
	return Point{X: a.X, Y: a.Y}
}

func (a Anchor) Validate() error {
	if a.Kind != AnchorRelative {
		return nil
	}
	if a.RX < 0 || a.RX > 1 || a.RY < 0 || a.RY > 1 {
		return fmt.Errorf("%w: relative anchor (%g,%g) outside [0,1]", ErrInvalidSpec, a.RX, a.RY)
	}
	return nil
}

func (a Anchor) String() string {
	if a.Kind == AnchorAbsolute {
		return fmt.Sprintf("absolute(%d,%d)", a.X, a.Y)
	}
	return fmt.Sprintf("relative(%g,%g)", a.RX, a.RY)
}

// Preset is one cell of the nine-grid.
type Preset string

const (
	PresetTopLeft      Preset = "top-left"
	PresetTopCenter    Preset = "top-center"
	PresetTopRight     Preset = "top-right"
	PresetMiddleLeft   Preset = "middle-left"
	PresetCenter       Preset = "center"
	PresetMiddleRight  Preset = "middle-right"
	PresetBottomLeft   Preset = "bottom-left"
	PresetBottomCenter Preset = "bottom-center"
	PresetBottomRight  Preset = "bottom-right"
)

var Presets = []Preset{
	PresetTopLeft, PresetTopCenter, PresetTopRight,
	PresetMiddleLeft, PresetCenter, PresetMiddleRight,
	PresetBottomLeft, PresetBottomCenter, PresetBottomRight,
}

var presetRatios = map[Preset][2]float64{
	PresetTopLeft:      {0.1, 0.1},
	PresetTopCenter:    {0.5, 0.1},
	PresetTopRight:     {0.9, 0.1},
	PresetMiddleLeft:   {0.1, 0.5},
	PresetCenter:       {0.5, 0.5},
	PresetMiddleRight:  {0.9, 0.5},
	PresetBottomLeft:   {0.1, 0.9},
	PresetBottomCenter: {0.5, 0.9},
	PresetBottomRight:  {0.9, 0.9},
}

func (p Preset) Anchor() Anchor {
	r := presetRatios[p]
	return Relative(r[0], r[1])
}

// ParsePreset accepts hyphen, underscore and space separated names.
func ParsePreset(s string) (Preset, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch norm {
	case "middle-center", "center-center":
		norm = string(PresetCenter)
	case "left", "center-left":
		norm = string(PresetMiddleLeft)
	case "right", "center-right":
		norm = string(PresetMiddleRight)
	case "top":
		norm = string(PresetTopCenter)
	case "bottom":
		norm = string(PresetBottomCenter)
	}
	p := Preset(norm)
	if _, ok := presetRatios[p]; !ok {
		return "", false
	}
	return p, true
}

// PresetFor reports which canonical preset a relative anchor matches.
func PresetFor(a Anchor) (Preset, bool) {
	if a.Kind != AnchorRelative {
		return "", false
	}
	for _, p := range Presets {
		r := presetRatios[p]
		if r[0] == a.RX && r[1] == a.RY {
			return p, true
		}
	}
	return "", false
}
