package watermark

import (
	"context"
	"image"

	"photo-watermark/internal/domain"
	"photo-watermark/internal/usecase/processor/geometry"
)

type previewRenderer interface {
	RenderPreview(ctx context.Context, path string, spec domain.WatermarkSpec, target domain.Size) (*image.RGBA, domain.RenderInfo, error)
	SetCompressionScale(scale float64) error
	ClearCompressionScale()
	SetZoomScale(path string, zoom float64) error
	NewDragSession(path string, origin domain.Point) (*geometry.DragSession, error)
	Invalidate(path string)
}

type exporter interface {
	Export(ctx context.Context, item domain.ExportItem, opts domain.ExportOptions) (*domain.ExportedImage, error)
}

type jobPublisher interface {
	PublishJob(ctx context.Context, job domain.ExportJob) error
}

type boundaryChecker interface {
	Check(box domain.Rect, canvas domain.Size) domain.BoundaryResult
}
