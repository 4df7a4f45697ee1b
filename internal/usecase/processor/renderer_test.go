package processor

import (
	"context"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"photo-watermark/internal/domain"
	"photo-watermark/internal/usecase/processor/glyph"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	fonts, err := glyph.NewLibrary(glyph.Options{}, nil)
	require.NoError(t, err)
	r, err := NewRenderer(fonts, DefaultOptions(), nil)
	require.NoError(t, err)
	return r
}

func writeImage(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
	return path
}

var gray = color.NRGBA{R: 90, G: 90, B: 90, A: 255}

func logoSpec(path string) domain.WatermarkSpec {
	spec := domain.DefaultImageSpec(path)
	spec.Image.Opacity = 100
	return spec
}

func TestRenderPreviewCentersTextOnRatio(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 800, gray)
	r := newTestRenderer(t)

	spec := domain.DefaultTextSpec()
	spec.Text.Content = "Hi"
	spec.Text.FontSizePx = 48
	spec.Text.Opacity = 100
	spec.Anchor = domain.PresetCenter.Anchor()

	bitmap, info, err := r.RenderPreview(context.Background(), src, spec, domain.Size{})
	require.NoError(t, err)

	assert.Equal(t, domain.Size{Width: 1000, Height: 800}, info.SourceDimensions)
	assert.InDelta(t, 0.72, info.CompressionScale, 1e-9)
	assert.Equal(t, domain.Size{Width: 720, Height: 576}, info.PreviewDimensions)
	assert.Equal(t, info.PreviewDimensions.Width, bitmap.Bounds().Dx())

	require.False(t, info.Footprint.Empty())
	centerX := float64(info.Position.X) + float64(info.Footprint.Width)/2
	centerY := float64(info.Position.Y) + float64(info.Footprint.Height)/2
	assert.InDelta(t, 500, centerX, 1)
	assert.InDelta(t, 400, centerY, 1)

	assert.Equal(t, int(math.Round(float64(info.Position.X)*0.72)), info.PreviewPosition.X)
	assert.Equal(t, int(math.Round(float64(info.Position.Y)*0.72)), info.PreviewPosition.Y)
	assert.False(t, info.Boundary.OutOfBounds)

	require.True(t, info.Spec.Anchor.IsAbsolute())
	assert.Equal(t, info.Position, info.Spec.Anchor.Point())
	assert.False(t, spec.Anchor.IsAbsolute(), "caller spec must not be mutated")
}

func TestRenderPreviewImageWatermark(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 1000, gray)
	logo := writeImage(t, dir, "logo.png", 100, 100, color.NRGBA{R: 255, A: 255})
	r := newTestRenderer(t)

	bitmap, info, err := r.RenderPreview(context.Background(), src, logoSpec(logo), domain.Size{})
	require.NoError(t, err)

	assert.Equal(t, domain.Point{X: 850, Y: 850}, info.Position)
	assert.Equal(t, domain.Size{Width: 100, Height: 100}, info.Footprint)
	assert.Equal(t, domain.Point{X: 612, Y: 612}, info.PreviewPosition)

	inside := bitmap.RGBAAt(612+36, 612+36)
	assert.Greater(t, inside.R, uint8(200))
	assert.Less(t, inside.G, uint8(50))

	outside := bitmap.RGBAAt(100, 100)
	assert.InDelta(t, 90, int(outside.R), 2)
}

func TestRenderPreviewStableAfterResolve(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1200, 900, gray)
	r := newTestRenderer(t)

	_, first, err := r.RenderPreview(context.Background(), src, domain.DefaultTextSpec(), domain.Size{})
	require.NoError(t, err)

	_, second, err := r.RenderPreview(context.Background(), src, first.Spec, domain.Size{})
	require.NoError(t, err)

	assert.Equal(t, first.Position, second.Position)
	assert.Equal(t, first.PreviewPosition, second.PreviewPosition)
}

func TestRenderPreviewCache(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 800, 600, gray)
	r := newTestRenderer(t)
	spec := domain.DefaultTextSpec()

	assert.Equal(t, Uncomposited, r.State(src))

	first, info, err := r.RenderPreview(context.Background(), src, spec, domain.Size{})
	require.NoError(t, err)
	assert.False(t, info.CacheHit)
	assert.Equal(t, Composited, r.State(src))

	second, info, err := r.RenderPreview(context.Background(), src, spec, domain.Size{})
	require.NoError(t, err)
	assert.True(t, info.CacheHit)
	assert.Same(t, first, second)

	changed := spec.Clone()
	changed.Text.Opacity = 80
	third, info, err := r.RenderPreview(context.Background(), src, changed, domain.Size{})
	require.NoError(t, err)
	assert.False(t, info.CacheHit)
	assert.NotSame(t, first, third)

	r.Invalidate(src)
	assert.Equal(t, Uncomposited, r.State(src))
}

func TestRenderExportMatchesPreviewPosition(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 1000, gray)
	logo := writeImage(t, dir, "logo.png", 100, 100, color.NRGBA{R: 255, A: 255})
	r := newTestRenderer(t)

	_, preview, err := r.RenderPreview(context.Background(), src, logoSpec(logo), domain.Size{})
	require.NoError(t, err)

	out, info, err := r.RenderExport(context.Background(), src, preview.Spec, domain.ResizeSpec{})
	require.NoError(t, err)

	assert.Equal(t, preview.Position, info.Position)
	assert.Equal(t, 1000, out.Bounds().Dx())
	assert.Equal(t, uint8(255), out.RGBAAt(900, 900).R)
	assert.Equal(t, uint8(90), out.RGBAAt(840, 840).R)

	resized, _, err := r.RenderExport(context.Background(), src, preview.Spec, domain.ResizeSpec{Mode: domain.ResizeWidth, Value: 500})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 500, 500), resized.Bounds())
}

func TestRenderExportTextFootprintTracksScale(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 2000, 1500, gray)
	r := newTestRenderer(t)
	spec := domain.DefaultTextSpec()
	spec.Text.FontSizePx = 72

	_, preview, err := r.RenderPreview(context.Background(), src, spec, domain.Size{})
	require.NoError(t, err)
	_, export, err := r.RenderExport(context.Background(), src, preview.Spec, domain.ResizeSpec{})
	require.NoError(t, err)

	tolerance := 0.06 * float64(export.Footprint.Width)
	assert.InDelta(t, export.Footprint.Width, preview.Footprint.Width, tolerance)
	assert.InDelta(t, export.Footprint.Height, preview.Footprint.Height, 0.1*float64(export.Footprint.Height))
}

func TestRenderMissingWatermarkDegrades(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 640, 480, gray)
	r := newTestRenderer(t)
	spec := logoSpec(filepath.Join(dir, "missing.png"))

	bitmap, info, err := r.RenderPreview(context.Background(), src, spec, domain.Size{})
	require.NoError(t, err)
	require.NotNil(t, bitmap)
	assert.Equal(t, uint8(90), bitmap.RGBAAt(600, 440).R)
	require.Len(t, info.Notices, 1)
	assert.Contains(t, info.Notices[0], "missing.png")
	assert.False(t, info.Spec.Anchor.IsAbsolute())

	r.Invalidate(src)
	_, info, err = r.RenderPreview(context.Background(), src, spec, domain.Size{})
	require.NoError(t, err)
	assert.Empty(t, info.Notices, "notice is reported once")
}

func TestRenderMissingSource(t *testing.T) {
	r := newTestRenderer(t)
	_, _, err := r.RenderPreview(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), domain.DefaultTextSpec(), domain.Size{})
	assert.ErrorIs(t, err, domain.ErrSourceImage)
}

func TestRenderRejectsInvalidSpec(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 100, 100, gray)
	r := newTestRenderer(t)
	spec := domain.DefaultTextSpec()
	spec.Text.Opacity = 150

	_, _, err := r.RenderPreview(context.Background(), src, spec, domain.Size{})
	assert.ErrorIs(t, err, domain.ErrInvalidSpec)
}

func TestRenderCancelled(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.RenderExport(ctx, "photo.png", domain.DefaultTextSpec(), domain.ResizeSpec{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompressionScaleOverride(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 1000, gray)
	r := newTestRenderer(t)

	assert.ErrorIs(t, r.SetCompressionScale(0), domain.ErrInvalidGeometry)
	assert.ErrorIs(t, r.SetCompressionScale(-1), domain.ErrInvalidGeometry)
	assert.ErrorIs(t, r.SetCompressionScale(MaxCompressionScale+1), domain.ErrInvalidGeometry)

	require.NoError(t, r.SetCompressionScale(0.5))
	_, info, err := r.RenderPreview(context.Background(), src, domain.DefaultTextSpec(), domain.Size{})
	require.NoError(t, err)
	assert.Equal(t, domain.Size{Width: 500, Height: 500}, info.PreviewDimensions)

	r.ClearCompressionScale()
	_, info, err = r.RenderPreview(context.Background(), src, domain.DefaultTextSpec(), domain.Size{})
	require.NoError(t, err)
	assert.InDelta(t, 0.72, info.CompressionScale, 1e-9)
}

func TestDragSessionUsesRenderContext(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 1000, gray)
	r := newTestRenderer(t)

	_, err := r.NewDragSession(src, domain.Point{})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	_, info, err := r.RenderPreview(context.Background(), src, domain.DefaultTextSpec(), domain.Size{})
	require.NoError(t, err)
	require.NoError(t, r.SetZoomScale(src, 2))

	rc, ok := r.Context(src)
	require.True(t, ok)
	assert.Equal(t, 2.0, rc.ZoomScale)

	d, err := r.NewDragSession(src, info.Position)
	require.NoError(t, err)
	p, err := d.Move(10, -10)
	require.NoError(t, err)
	assert.Equal(t, domain.Point{X: info.Position.X + 7, Y: info.Position.Y - 7}, p)
}

func TestRenderRejectsOversizedBitmaps(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 800, gray)
	r := newTestRenderer(t)

	_, _, err := r.RenderPreview(context.Background(), src, domain.DefaultTextSpec(), domain.Size{Width: 200000, Height: 200000})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	_, _, err = r.RenderExport(context.Background(), src, domain.DefaultTextSpec(), domain.ResizeSpec{Mode: domain.ResizeWidth, Value: 200000})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	spec := domain.DefaultTextSpec()
	spec.Text.FontSizePx = 1e6
	bitmap, info, err := r.RenderExport(context.Background(), src, spec, domain.ResizeSpec{})
	require.NoError(t, err)
	assert.Equal(t, 1000, bitmap.Bounds().Dx())
	assert.Equal(t, []string{"watermark could not be rendered"}, info.Notices)
}

// inkBounds returns the box of pixels that differ from the background.
func inkBounds(img *image.RGBA, bg color.NRGBA) image.Rectangle {
	var box image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R == bg.R && c.G == bg.G && c.B == bg.B {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box
}

func TestRenderExportCentersText(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 200, 200, gray)
	r := newTestRenderer(t)

	spec := domain.DefaultTextSpec()
	spec.Text.Content = "Hi"
	spec.Text.FontSizePx = 64
	spec.Text.Opacity = 100
	spec.Anchor = domain.Relative(0.5, 0.5)

	bitmap, info, err := r.RenderExport(context.Background(), src, spec, domain.ResizeSpec{})
	require.NoError(t, err)

	ink := inkBounds(bitmap, gray)
	require.False(t, ink.Empty())
	assert.InDelta(t, 100, float64(ink.Min.X+ink.Max.X)/2, 1)
	assert.InDelta(t, 100, float64(ink.Min.Y+ink.Max.Y)/2, 1)
	assert.True(t, info.Spec.Anchor.IsAbsolute())
}

func TestRenderExportPlacesLogo(t *testing.T) {
	dir := t.TempDir()
	src := writeImage(t, dir, "photo.png", 1000, 1000, gray)
	logo := writeImage(t, dir, "logo.png", 200, 200, color.NRGBA{R: 255, A: 255})
	r := newTestRenderer(t)

	spec := logoSpec(logo)
	spec.Image.ScalePercent = 50
	spec.Anchor = domain.Relative(0.9, 0.9)

	bitmap, info, err := r.RenderExport(context.Background(), src, spec, domain.ResizeSpec{})
	require.NoError(t, err)

	assert.Equal(t, domain.Point{X: 850, Y: 850}, info.Position)
	assert.Equal(t, domain.Size{Width: 100, Height: 100}, info.Footprint)
	assert.Equal(t, domain.Absolute(850, 850), info.Spec.Anchor)
	assert.Equal(t, image.Rect(850, 850, 950, 950), inkBounds(bitmap, gray))
	assert.Equal(t, uint8(255), bitmap.RGBAAt(899, 899).R)
}
