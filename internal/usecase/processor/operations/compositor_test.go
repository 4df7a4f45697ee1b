package operations

import (
	"image"
	"image/color"
	"testing"

	"photo-watermark/internal/domain"
	"photo-watermark/internal/usecase/processor/glyph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	lib, err := glyph.NewLibrary(glyph.Options{}, nil)
	require.NoError(t, err)
	return NewCompositor(lib, nil)
}

func textSpec(content string, size float64, opacity int) domain.WatermarkSpec {
	spec := domain.DefaultTextSpec()
	spec.Text.Content = content
	spec.Text.FontSizePx = size
	spec.Text.Opacity = opacity
	spec.Text.Color = domain.RGB{R: 200, G: 30, B: 30}
	return spec
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func centerAlpha(img *image.RGBA) uint8 {
	b := img.Bounds()
	return img.RGBAAt(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).A
}

func TestBuildTextOpacityMonotonic(t *testing.T) {
	c := newTestCompositor(t)

	var prev uint8
	for _, op := range []int{10, 40, 70, 100} {
		layer, err := c.BuildText(textSpec("I", 96, op), 1)
		require.NoError(t, err)
		a := centerAlpha(layer.Bitmap)
		assert.Greater(t, a, prev, "opacity %d", op)
		prev = a
	}
	assert.Equal(t, uint8(255), prev)
}

func TestBuildTextCropsToInk(t *testing.T) {
	c := newTestCompositor(t)

	layer, err := c.BuildText(textSpec("Hi", 64, 100), 1)
	require.NoError(t, err)

	b := layer.Bitmap.Bounds()
	assert.Equal(t, image.Point{}, b.Min)
	assert.Less(t, b.Dx(), 100)
	assert.Less(t, b.Dy(), 64)
	assert.Equal(t, b, opaqueBounds(layer.Bitmap))
}

func TestBuildTextEmpty(t *testing.T) {
	c := newTestCompositor(t)

	_, err := c.BuildText(textSpec("", 64, 100), 1)
	assert.ErrorIs(t, err, ErrEmptyWatermark)

	_, err = c.BuildText(textSpec("   ", 64, 100), 1)
	assert.ErrorIs(t, err, ErrEmptyWatermark)
}

func TestBuildTextEffectsGrowFootprint(t *testing.T) {
	c := newTestCompositor(t)

	plain, err := c.BuildText(textSpec("Mark", 48, 80), 1)
	require.NoError(t, err)

	outlined := textSpec("Mark", 48, 80)
	outlined.Effects.Outline = &domain.OutlineEffect{Color: domain.ColorBlack, Width: 3}
	withOutline, err := c.BuildText(outlined, 1)
	require.NoError(t, err)
	assert.InDelta(t, plain.Size().Width+6, withOutline.Size().Width, 2)
	assert.InDelta(t, plain.Size().Height+6, withOutline.Size().Height, 2)

	shadowed := textSpec("Mark", 48, 80)
	shadowed.Effects.Shadow = &domain.ShadowEffect{Color: domain.ColorBlack, Offset: domain.Offset{DX: 6, DY: 6}}
	withShadow, err := c.BuildText(shadowed, 1)
	require.NoError(t, err)
	assert.InDelta(t, plain.Size().Width+6, withShadow.Size().Width, 2)
	assert.InDelta(t, plain.Size().Height+6, withShadow.Size().Height, 2)
}

func TestBuildTextOutlineDrawnUnderFill(t *testing.T) {
	c := newTestCompositor(t)

	spec := textSpec("I", 96, 100)
	spec.Effects.Outline = &domain.OutlineEffect{Color: domain.RGB{B: 255}, Width: 2}
	layer, err := c.BuildText(spec, 1)
	require.NoError(t, err)

	b := layer.Bitmap.Bounds()
	center := layer.Bitmap.RGBAAt(b.Dx()/2, b.Dy()/2)
	assert.Equal(t, uint8(200), center.R)
	assert.Equal(t, uint8(0), center.B)
}

func TestBuildTextRotation(t *testing.T) {
	c := newTestCompositor(t)

	flat, err := c.BuildText(textSpec("Watermark", 40, 100), 1)
	require.NoError(t, err)

	spec := textSpec("Watermark", 40, 100)
	spec.RotationDegrees = 90
	upright, err := c.BuildText(spec, 1)
	require.NoError(t, err)

	assert.InDelta(t, flat.Size().Width, upright.Size().Height, 2)
	assert.InDelta(t, flat.Size().Height, upright.Size().Width, 2)
}

func TestBuildTextSimulatedStyles(t *testing.T) {
	lib, err := glyph.NewLibrary(glyph.Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, lib.Register("Plain", glyph.StyleRegular, goregular.TTF))
	c := NewCompositor(lib, nil)

	base := textSpec("Lean", 60, 100)
	base.Text.FontFamily = "Plain"
	regular, err := c.BuildText(base, 1)
	require.NoError(t, err)

	bold := base.Clone()
	bold.Text.Bold = true
	boldLayer, err := c.BuildText(bold, 1)
	require.NoError(t, err)
	assert.Equal(t, regular.Size().Width+1, boldLayer.Size().Width)

	italic := base.Clone()
	italic.Text.Italic = true
	italicLayer, err := c.BuildText(italic, 1)
	require.NoError(t, err)
	assert.Greater(t, italicLayer.Size().Width, regular.Size().Width)
}

func TestBuildTextPreviewScale(t *testing.T) {
	c := newTestCompositor(t)

	full, err := c.BuildText(textSpec("Scale", 80, 100), 1)
	require.NoError(t, err)
	half, err := c.BuildText(textSpec("Scale", 80, 100), 0.5)
	require.NoError(t, err)

	assert.InDelta(t, float64(full.Size().Width)/2, half.Size().Width, 3)
	assert.InDelta(t, float64(full.Size().Height)/2, half.Size().Height, 3)
}

func TestBuildImage(t *testing.T) {
	c := newTestCompositor(t)
	mark := solidImage(200, 200, color.NRGBA{R: 10, G: 120, B: 240, A: 255})

	spec := domain.DefaultImageSpec("mark.png")
	spec.Image.ScalePercent = 50
	spec.Image.Opacity = 100

	layer, err := c.BuildImage(spec, mark, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Size{Width: 100, Height: 100}, layer.Size())

	preview, err := c.BuildImage(spec, mark, 0.36)
	require.NoError(t, err)
	assert.Equal(t, domain.Size{Width: 36, Height: 36}, preview.Size())

	spec.RotationDegrees = 45
	rotated, err := c.BuildImage(spec, mark, 1)
	require.NoError(t, err)
	assert.InDelta(t, 141, rotated.Size().Width, 2)
}

func TestBuildImageOpacityMonotonic(t *testing.T) {
	c := newTestCompositor(t)
	mark := solidImage(40, 40, color.NRGBA{R: 255, A: 255})

	var prev uint8
	for _, op := range []int{10, 35, 60, 100} {
		spec := domain.DefaultImageSpec("mark.png")
		spec.Image.Opacity = op
		layer, err := c.BuildImage(spec, mark, 1)
		require.NoError(t, err)
		a := centerAlpha(layer.Bitmap)
		assert.Greater(t, a, prev, "opacity %d", op)
		prev = a
	}
}

func TestBuildImageRejectsEmptySource(t *testing.T) {
	c := newTestCompositor(t)
	_, err := c.BuildImage(domain.DefaultImageSpec("x.png"), image.NewNRGBA(image.Rect(0, 0, 0, 0)), 1)
	assert.ErrorIs(t, err, domain.ErrWatermarkSource)
}

func TestBuildRejectsOversizedLayers(t *testing.T) {
	c := newTestCompositor(t).WithMaxEdge(500)

	_, err := c.BuildText(textSpec("Hi", 100000, 100), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	_, err = c.BuildText(textSpec("Hi", 64, 100), 1)
	assert.NoError(t, err)

	spec := domain.DefaultImageSpec("logo.png")
	spec.Image.ScalePercent = 1000
	_, err = c.BuildImage(spec, solidImage(200, 200, color.NRGBA{R: 255, A: 255}), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	spec.Image.ScalePercent = 200
	_, err = c.BuildImage(spec, solidImage(200, 200, color.NRGBA{R: 255, A: 255}), 1)
	assert.NoError(t, err)
}
