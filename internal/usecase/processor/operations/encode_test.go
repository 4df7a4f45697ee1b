package operations

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"photo-watermark/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestEncodeJPEGFlattensOntoWhite(t *testing.T) {
	e := NewEncoder()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	data, err := e.EncodeBytes(img, domain.FormatJPEG, 90)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(245))
	assert.Greater(t, g>>8, uint32(245))
	assert.Greater(t, b>>8, uint32(245))
}

func TestEncodeFormats(t *testing.T) {
	e := NewEncoder()
	img := solidImage(6, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	data, err := e.EncodeBytes(img, domain.FormatPNG, 0)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), decoded.Bounds())

	data, err = e.EncodeBytes(img, domain.FormatBMP, 0)
	require.NoError(t, err)
	decoded, err = bmp.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), decoded.Bounds())

	_, err = e.EncodeBytes(img, domain.FormatTIFF, 0)
	require.NoError(t, err)

	_, err = e.EncodeBytes(img, domain.ImageFormat("gif"), 0)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestResizer(t *testing.T) {
	r := NewResizer(0)
	img := solidImage(400, 200, color.NRGBA{A: 255})

	tests := []struct {
		name string
		spec domain.ResizeSpec
		want image.Rectangle
	}{
		{"none", domain.ResizeSpec{}, image.Rect(0, 0, 400, 200)},
		{"width", domain.ResizeSpec{Mode: domain.ResizeWidth, Value: 100}, image.Rect(0, 0, 100, 50)},
		{"height", domain.ResizeSpec{Mode: domain.ResizeHeight, Value: 50}, image.Rect(0, 0, 100, 50)},
		{"percent", domain.ResizeSpec{Mode: domain.ResizePercent, Value: 25}, image.Rect(0, 0, 100, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Process(img, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Bounds())
		})
	}

	_, err := r.Process(img, domain.ResizeSpec{Mode: domain.ResizeWidth})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
}

func TestResizerRejectsOversizedOutput(t *testing.T) {
	img := solidImage(1000, 800, color.NRGBA{A: 255})

	tests := []struct {
		name  string
		limit int
		spec  domain.ResizeSpec
	}{
		{"default limit width", 0, domain.ResizeSpec{Mode: domain.ResizeWidth, Value: 200000}},
		{"default limit percent", 0, domain.ResizeSpec{Mode: domain.ResizePercent, Value: 1e12}},
		{"derived edge", 1000, domain.ResizeSpec{Mode: domain.ResizeHeight, Value: 900}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResizer(tt.limit).Process(img, tt.spec)
			assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
		})
	}

	out, err := NewResizer(1000).Process(img, domain.ResizeSpec{Mode: domain.ResizeWidth, Value: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1000, out.Bounds().Dx())
}

func TestCheckEdges(t *testing.T) {
	assert.NoError(t, CheckEdges(16384, 1, 0))
	assert.ErrorIs(t, CheckEdges(16385, 1, 0), domain.ErrInvalidGeometry)
	assert.ErrorIs(t, CheckEdges(1, 11, 10), domain.ErrInvalidGeometry)
}

func TestPreviewScaler(t *testing.T) {
	p := NewPreviewScaler(480, 720)

	tests := []struct {
		name   string
		source domain.Size
		target domain.Size
		want   float64
	}{
		{"large", domain.Size{Width: 4000, Height: 3000}, domain.Size{}, 0.18},
		{"in band", domain.Size{Width: 600, Height: 400}, domain.Size{}, 1},
		{"small upscaled", domain.Size{Width: 200, Height: 200}, domain.Size{}, 2.4},
		{"portrait", domain.Size{Width: 1000, Height: 1440}, domain.Size{}, 0.5},
		{"explicit target", domain.Size{Width: 1000, Height: 500}, domain.Size{Width: 500, Height: 500}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Scale(tt.source, tt.target)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := p.Scale(domain.Size{}, domain.Size{})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)
}
