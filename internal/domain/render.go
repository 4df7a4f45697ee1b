package domain

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) Longer() int {
	if s.Width > s.Height {
		return s.Width
	}
	return s.Height
}

type Rect struct {
	X, Y, Width, Height int
}

// RenderContext is the transient per-image state shared between the
// renderer and the position widgets.
type RenderContext struct {
	SourceDimensions Size
	CompressionScale float64
	ZoomScale        float64
}

type Edge string

const (
	EdgeLeft   Edge = "left"
	EdgeTop    Edge = "top"
	EdgeRight  Edge = "right"
	EdgeBottom Edge = "bottom"
)

type BoundaryResult struct {
	OutOfBounds bool   `json:"out_of_bounds"`
	Reason      string `json:"reason,omitempty"`
	Edges       []Edge `json:"edges,omitempty"`
}

// RenderInfo is returned with every render so callers can keep manual
// coordinate inputs and the stored spec in sync.
type RenderInfo struct {
	SourceDimensions  Size
	PreviewDimensions Size
	CompressionScale  float64
	// Position is the authoritative source-space top-left of the watermark.
	Position Point
	// PreviewPosition is always Position scaled by CompressionScale.
	PreviewPosition Point
	Footprint       Size
	Boundary        BoundaryResult
	Spec            WatermarkSpec
	CacheHit        bool
	Notices         []string
}

type ResizeMode string

const (
	ResizeNone    ResizeMode = ""
	ResizeWidth   ResizeMode = "width"
	ResizeHeight  ResizeMode = "height"
	ResizePercent ResizeMode = "percent"
)

// ResizeSpec is an optional post-composite resize applied on export.
type ResizeSpec struct {
	Mode  ResizeMode `json:"mode" validate:"omitempty,oneof=width height percent"`
	Value float64    `json:"value" validate:"gte=0"`
}
