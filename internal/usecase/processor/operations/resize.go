package operations

import (
	"fmt"
	"image"
	"math"

	"photo-watermark/internal/domain"

	"github.com/disintegration/imaging"
)

type Resizer struct {
	maxEdge int
}

// NewResizer refuses outputs larger than maxEdge on either edge; a
// non-positive maxEdge selects DefaultMaxEdge.
func NewResizer(maxEdge int) *Resizer {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	return &Resizer{maxEdge: maxEdge}
}

// Process applies the user's post-composite export resize. Width and height
// modes keep the aspect ratio; the filter is Lanczos.
func (r *Resizer) Process(img image.Image, spec domain.ResizeSpec) (image.Image, error) {
	if spec.Mode == domain.ResizeNone {
		return img, nil
	}
	if spec.Value <= 0 {
		return nil, fmt.Errorf("%w: resize value %g", domain.ErrInvalidGeometry, spec.Value)
	}

	b := img.Bounds()
	var fw, fh float64

	switch spec.Mode {
	case domain.ResizeWidth:
		fw = spec.Value
		fh = float64(b.Dy()) * spec.Value / float64(b.Dx())
	case domain.ResizeHeight:
		fh = spec.Value
		fw = float64(b.Dx()) * spec.Value / float64(b.Dy())
	case domain.ResizePercent:
		fw = float64(b.Dx()) * spec.Value / 100
		fh = float64(b.Dy()) * spec.Value / 100
	default:
		return nil, fmt.Errorf("unsupported resize mode: %s", spec.Mode)
	}
	if err := CheckEdges(math.Round(fw), math.Round(fh), r.maxEdge); err != nil {
		return nil, err
	}
	width := int(math.Round(fw))
	height := int(math.Round(fh))

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == b.Dx() && height == b.Dy() {
		return img, nil
	}

	return resizeImage(img, width, height), nil
}

func resizeImage(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
