package operations

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"photo-watermark/internal/domain"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode writes img in format. JPEG output is flattened onto white since
// JPEG has no alpha channel; quality is clamped to 0-100.
func (e *Encoder) Encode(w io.Writer, img image.Image, format domain.ImageFormat, quality int) error {
	var err error

	switch format {
	case domain.FormatJPEG:
		err = jpeg.Encode(w, flatten(img, color.White), &jpeg.Options{Quality: jpegQuality(quality)})
	case domain.FormatPNG:
		err = png.Encode(w, img)
	case domain.FormatBMP:
		err = bmp.Encode(w, img)
	case domain.FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	if err != nil {
		return fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return nil
}

func (e *Encoder) EncodeBytes(img image.Image, format domain.ImageFormat, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.Encode(buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jpegQuality(q int) int {
	switch {
	case q <= 0:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}

// flatten composites img over an opaque background.
func flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}
