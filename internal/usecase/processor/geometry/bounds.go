package geometry

import (
	"math"

	"photo-watermark/internal/domain"
)

// RotatedBounds returns the axis-aligned box enclosing a w×h box rotated by
// degrees. The result is the same for θ and -θ.
func RotatedBounds(w, h int, degrees float64) domain.Size {
	if degrees == 0 {
		return domain.Size{Width: w, Height: h}
	}
	rad := degrees * math.Pi / 180
	c := math.Abs(math.Cos(rad))
	s := math.Abs(math.Sin(rad))
	fw, fh := float64(w), float64(h)
	return domain.Size{
		Width:  round(fw*c + fh*s),
		Height: round(fw*s + fh*c),
	}
}

// RotatedRect returns the bounding box of box rotated about its centre.
func RotatedRect(box domain.Rect, degrees float64) domain.Rect {
	size := RotatedBounds(box.Width, box.Height, degrees)
	return domain.Rect{
		X:      box.X - round(float64(size.Width-box.Width)/2),
		Y:      box.Y - round(float64(size.Height-box.Height)/2),
		Width:  size.Width,
		Height: size.Height,
	}
}
