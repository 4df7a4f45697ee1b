package operations

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"photo-watermark/internal/domain"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var eightDirections = []image.Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

func alphaOf(fraction float64) uint8 {
	if fraction <= 0 {
		return 0
	}
	if fraction >= 1 {
		return 255
	}
	return uint8(math.Round(fraction * 255))
}

func opaque(c domain.RGB) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// paintMask composites c through mask onto dst at a uniform alpha.
func paintMask(dst draw.Image, mask *image.Alpha, c domain.RGB, alpha uint8) {
	if alpha == 0 {
		return
	}
	src := image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha})
	draw.DrawMask(dst, mask.Bounds(), src, image.Point{}, mask, mask.Bounds().Min, draw.Over)
}

// shifted returns mask translated by d within the same bounds.
func shifted(mask *image.Alpha, d image.Point) *image.Alpha {
	out := image.NewAlpha(mask.Bounds())
	draw.Draw(out, mask.Bounds().Add(d), mask, mask.Bounds().Min, draw.Src)
	return out
}

// strokeMask grows mask outward by width pixels along the eight compass
// directions, then moves the result by offset.
func strokeMask(mask *image.Alpha, width int, offset image.Point) *image.Alpha {
	out := image.NewAlpha(mask.Bounds())
	for r := 1; r <= width; r++ {
		for _, d := range eightDirections {
			step := image.Pt(d.X*r+offset.X, d.Y*r+offset.Y)
			draw.Draw(out, mask.Bounds().Add(step), mask, mask.Bounds().Min, draw.Over)
		}
	}
	return out
}

// shearMask leans mask to the right by factor around the vertical centre
// and lifts it by lift pixels.
func shearMask(mask *image.Alpha, factor float64, lift int) *image.Alpha {
	b := mask.Bounds()
	pivot := float64(b.Min.Y+b.Max.Y) / 2
	out := image.NewAlpha(b)
	s2d := f64.Aff3{
		1, -factor, factor * pivot,
		0, 1, -float64(lift),
	}
	xdraw.BiLinear.Transform(out, s2d, mask, b, xdraw.Src, nil)
	return out
}

func blurredLayer(mask *image.Alpha, c domain.RGB, radius float64) *image.NRGBA {
	layer := image.NewNRGBA(mask.Bounds())
	draw.DrawMask(layer, mask.Bounds(), image.NewUniform(opaque(c)), image.Point{}, mask, mask.Bounds().Min, draw.Over)
	if radius <= 0 {
		return layer
	}
	return imaging.Blur(layer, radius)
}

func rotateExpand(img image.Image, degrees int) *image.NRGBA {
	if degrees == 0 {
		return imaging.Clone(img)
	}
	return imaging.Rotate(img, float64(degrees), color.Transparent)
}

// opaqueBounds is the smallest rectangle holding every non-transparent pixel.
func opaqueBounds(img image.Image) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1

	alphaAt := func(x, y int) uint32 {
		_, _, _, a := img.At(x, y).RGBA()
		return a
	}
	if n, ok := img.(*image.NRGBA); ok {
		alphaAt = func(x, y int) uint32 {
			return uint32(n.Pix[n.PixOffset(x, y)+3])
		}
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if alphaAt(x, y) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// toRGBA copies img into a premultiplied bitmap rooted at (0,0).
func toRGBA(img image.Image, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// multiplyAlpha scales every pixel's alpha by fraction in place.
func multiplyAlpha(img *image.NRGBA, fraction float64) {
	if fraction >= 1 {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(math.Round(float64(img.Pix[i]) * fraction))
	}
}

func alphaColor(a uint8) color.Alpha {
	return color.Alpha{A: a}
}
