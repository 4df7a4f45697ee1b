package geometry

import (
	"fmt"
	"math"
	"strings"

	"photo-watermark/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

// Policy selects how a relative anchor becomes a top-left position.
type Policy int

const (
	// CenterOnRatio centers the content on the ratio point.
	CenterOnRatio Policy = iota
	// MarginedGridCell snaps the ratio to a nine-grid cell and aligns the
	// content to that cell's edge with a fixed margin.
	MarginedGridCell
)

func (p Policy) String() string {
	if p == MarginedGridCell {
		return "margined-grid-cell"
	}
	return "center-on-ratio"
}

// ParsePolicy accepts the names used in configuration files.
func ParsePolicy(s string) (Policy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center", "center-on-ratio":
		return CenterOnRatio, true
	case "grid", "margined-grid-cell":
		return MarginedGridCell, true
	default:
		return CenterOnRatio, false
	}
}

const DefaultGridMargin = 20

// Mapper converts between source space, preview space and anchor space.
type Mapper struct {
	logger     *zlog.Zerolog
	gridMargin int
}

func NewMapper(logger *zlog.Zerolog, gridMargin int) *Mapper {
	if logger == nil {
		logger = &zlog.Logger
	}
	if gridMargin < 0 {
		gridMargin = DefaultGridMargin
	}
	return &Mapper{logger: logger, gridMargin: gridMargin}
}

// ResolveAnchor returns the source-space top-left of content placed by
// anchor. Absolute anchors pass through unchanged.
func (m *Mapper) ResolveAnchor(anchor domain.Anchor, content, source domain.Size, policy Policy) (domain.Point, error) {
	if anchor.IsAbsolute() {
		return anchor.Point(), nil
	}
	if source.Empty() {
		m.logger.Warn().
			Int("source_width", source.Width).
			Int("source_height", source.Height).
			Str("anchor", anchor.String()).
			Msg("Anchor resolution skipped, source dimensions unknown")
		return domain.Point{}, fmt.Errorf("%w: source dimensions %dx%d", domain.ErrInvalidGeometry, source.Width, source.Height)
	}

	switch policy {
	case MarginedGridCell:
		return domain.Point{
			X: gridAxis(anchor.RX, content.Width, source.Width, m.gridMargin),
			Y: gridAxis(anchor.RY, content.Height, source.Height, m.gridMargin),
		}, nil
	default:
		return domain.Point{
			X: round(float64(source.Width)*anchor.RX - float64(content.Width)/2),
			Y: round(float64(source.Height)*anchor.RY - float64(content.Height)/2),
		}, nil
	}
}

func gridAxis(ratio float64, content, total, margin int) int {
	switch {
	case ratio < 1.0/3:
		return margin
	case ratio > 2.0/3:
		return total - content - margin
	default:
		return round(float64(total-content) / 2)
	}
}

func (m *Mapper) ToPreviewSpace(abs domain.Point, scale float64) (domain.Point, error) {
	if !validScale(scale) {
		m.logScale(scale, "to_preview_space")
		return abs, fmt.Errorf("%w: compression scale %g", domain.ErrInvalidGeometry, scale)
	}
	return domain.Point{
		X: round(float64(abs.X) * scale),
		Y: round(float64(abs.Y) * scale),
	}, nil
}

func (m *Mapper) ToSourceSpace(preview domain.Point, scale float64) (domain.Point, error) {
	if !validScale(scale) {
		m.logScale(scale, "to_source_space")
		return preview, fmt.Errorf("%w: compression scale %g", domain.ErrInvalidGeometry, scale)
	}
	return domain.Point{
		X: round(float64(preview.X) / scale),
		Y: round(float64(preview.Y) / scale),
	}, nil
}

// ScaleSize maps a size between spaces, never returning a zero edge for a
// non-empty input.
func (m *Mapper) ScaleSize(s domain.Size, factor float64) (domain.Size, error) {
	if !validScale(factor) {
		m.logScale(factor, "scale_size")
		return s, fmt.Errorf("%w: scale %g", domain.ErrInvalidGeometry, factor)
	}
	return domain.Size{
		Width:  scaleEdge(s.Width, factor),
		Height: scaleEdge(s.Height, factor),
	}, nil
}

// ApplyDragDelta converts a pointer delta measured in on-screen pixels to
// source space. The display zoom is divided out first, then the
// compression scale.
func (m *Mapper) ApplyDragDelta(start domain.Point, dx, dy, zoom, compression float64) (domain.Point, error) {
	if !validScale(zoom) || !validScale(compression) {
		m.logger.Warn().
			Float64("zoom", zoom).
			Float64("compression_scale", compression).
			Msg("Drag delta ignored, invalid scale")
		return start, fmt.Errorf("%w: zoom %g, compression %g", domain.ErrInvalidGeometry, zoom, compression)
	}
	factor := zoom * compression
	return domain.Point{
		X: start.X + round(dx/factor),
		Y: start.Y + round(dy/factor),
	}, nil
}

func (m *Mapper) logScale(scale float64, op string) {
	m.logger.Warn().Float64("compression_scale", scale).Str("op", op).Msg("Invalid scale, conversion skipped")
}

func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

func scaleEdge(v int, factor float64) int {
	if v <= 0 {
		return 0
	}
	out := round(float64(v) * factor)
	if out < 1 {
		return 1
	}
	return out
}

func round(v float64) int {
	return int(math.Round(v))
}
