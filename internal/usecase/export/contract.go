package export

import (
	"context"
	"image"

	"photo-watermark/internal/domain"
)

type renderer interface {
	RenderExport(ctx context.Context, path string, spec domain.WatermarkSpec, resize domain.ResizeSpec) (*image.RGBA, domain.RenderInfo, error)
}

type encoder interface {
	EncodeBytes(img image.Image, format domain.ImageFormat, quality int) ([]byte, error)
}

// Sink stores encoded exports. Location reports where Put would write a
// name so the source-overwrite guard can run before rendering.
type Sink interface {
	Location(name string) string
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Progress is called after every item with the number of items handled.
type Progress func(done, total int, source string)
