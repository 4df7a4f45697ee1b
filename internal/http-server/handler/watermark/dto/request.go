package dto

import "photo-watermark/internal/domain"

type SizeRequest struct {
	Width  int `json:"width" validate:"gte=0"`
	Height int `json:"height" validate:"gte=0"`
}

type PointRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type PreviewRequest struct {
	SourcePath string         `json:"source_path" validate:"required"`
	Settings   map[string]any `json:"settings" validate:"required"`
	// Scale is the compression scale the settings' preview coordinates were recorded at.
	Scale  float64     `json:"scale" validate:"gte=0"`
	Target SizeRequest `json:"target"`
}

type ExportRequest struct {
	Item    domain.ExportItem    `json:"item"`
	Options domain.ExportOptions `json:"options"`
}

// BoundaryRequest describes an unrotated box; a non-zero rotation is checked
// against the box enclosing the rotated one, centred on the same point.
type BoundaryRequest struct {
	Canvas   SizeRequest  `json:"canvas"`
	Origin   PointRequest `json:"origin"`
	Size     SizeRequest  `json:"size"`
	Rotation int          `json:"rotation" validate:"gte=-180,lte=180"`
}

type DragRequest struct {
	SourcePath string       `json:"source_path" validate:"required"`
	Origin     PointRequest `json:"origin"`
	DX         float64      `json:"dx"`
	DY         float64      `json:"dy"`
	Zoom       float64      `json:"zoom" validate:"gte=0"`
}

type ScaleRequest struct {
	// Zero clears the override.
	Scale float64 `json:"scale" validate:"gte=0"`
}
