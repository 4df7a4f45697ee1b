package operations

import (
	"fmt"
	"image"

	"photo-watermark/internal/domain"

	"github.com/disintegration/imaging"
)

const (
	DefaultPreviewMinEdge = 480
	DefaultPreviewMaxEdge = 720
)

// PreviewScaler picks the compression scale of a preview and produces the
// downscaled (or upscaled) base bitmap.
type PreviewScaler struct {
	minEdge int
	maxEdge int
}

func NewPreviewScaler(minEdge, maxEdge int) *PreviewScaler {
	if minEdge <= 0 {
		minEdge = DefaultPreviewMinEdge
	}
	if maxEdge < minEdge {
		maxEdge = minEdge
	}
	return &PreviewScaler{minEdge: minEdge, maxEdge: maxEdge}
}

// Scale returns preview_width / source_width. With a target the image is
// fitted inside it; otherwise the longer edge lands in [minEdge, maxEdge].
func (p *PreviewScaler) Scale(source, target domain.Size) (float64, error) {
	if source.Empty() {
		return 0, fmt.Errorf("%w: source dimensions %dx%d", domain.ErrInvalidGeometry, source.Width, source.Height)
	}

	if !target.Empty() {
		sx := float64(target.Width) / float64(source.Width)
		sy := float64(target.Height) / float64(source.Height)
		if sx < sy {
			return sx, nil
		}
		return sy, nil
	}

	longer := float64(source.Longer())
	switch {
	case longer > float64(p.maxEdge):
		return float64(p.maxEdge) / longer, nil
	case longer < float64(p.minEdge):
		return float64(p.minEdge) / longer, nil
	default:
		return 1, nil
	}
}

// Base resizes src by scale, keeping at least one pixel per edge.
func (p *PreviewScaler) Base(src image.Image, scale float64) (*image.NRGBA, domain.Size) {
	b := src.Bounds()
	size := domain.Size{
		Width:  scaledLength(b.Dx(), scale),
		Height: scaledLength(b.Dy(), scale),
	}
	if size.Width == b.Dx() && size.Height == b.Dy() {
		return imaging.Clone(src), size
	}
	return imaging.Resize(src, size.Width, size.Height, imaging.Linear), size
}
