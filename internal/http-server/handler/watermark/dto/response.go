package dto

import "photo-watermark/internal/domain"

type PreviewResponse struct {
	Image             string                `json:"image"`
	ContentType       string                `json:"content_type"`
	SourceDimensions  domain.Size           `json:"source_dimensions"`
	PreviewDimensions domain.Size           `json:"preview_dimensions"`
	CompressionScale  float64               `json:"compression_scale"`
	Position          domain.Point          `json:"position"`
	PreviewPosition   domain.Point          `json:"preview_position"`
	Footprint         domain.Size           `json:"footprint"`
	Boundary          domain.BoundaryResult `json:"boundary"`
	Settings          map[string]any        `json:"settings"`
	CacheHit          bool                  `json:"cache_hit"`
	Notices           []string              `json:"notices,omitempty"`
}

type ExportResponse struct {
	SourcePath string             `json:"source_path"`
	OutputPath string             `json:"output_path"`
	Format     domain.ImageFormat `json:"format"`
	Size       int64              `json:"size"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
}

type DragResponse struct {
	Position domain.Point `json:"position"`
}

type JobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
