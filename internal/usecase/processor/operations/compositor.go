package operations

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"photo-watermark/internal/domain"
	"photo-watermark/internal/usecase/processor/glyph"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var ErrEmptyWatermark = errors.New("watermark has no visible content")

const (
	minPadding     = 20
	italicShear    = 0.15
	italicLiftPx   = 2.0
	outlineBoost   = 1.2
	shadowStrength = 0.8
	shadowCeiling  = 0.7
)

var boldOffsets = []image.Point{{1, 0}, {0, 1}, {1, 1}}

// Layer is a fully styled watermark bitmap ready to paste at one origin.
type Layer struct {
	Bitmap *image.RGBA
	Notice string
}

func (l *Layer) Size() domain.Size {
	if l == nil || l.Bitmap == nil {
		return domain.Size{}
	}
	b := l.Bitmap.Bounds()
	return domain.Size{Width: b.Dx(), Height: b.Dy()}
}

type Compositor struct {
	fonts   *glyph.Library
	maxEdge int
	logger  *zlog.Zerolog
}

func NewCompositor(fonts *glyph.Library, logger *zlog.Zerolog) *Compositor {
	if logger == nil {
		logger = &zlog.Logger
	}
	return &Compositor{fonts: fonts, maxEdge: DefaultMaxEdge, logger: logger}
}

// WithMaxEdge bounds the layer canvas; a non-positive limit keeps the default.
func (c *Compositor) WithMaxEdge(limit int) *Compositor {
	if limit > 0 {
		c.maxEdge = limit
	}
	return c
}

// BuildText renders a text watermark. scale multiplies every pixel
// quantity (font size, stroke, offsets, blur) and is 1 for export.
func (c *Compositor) BuildText(spec domain.WatermarkSpec, scale float64) (*Layer, error) {
	t := spec.Text
	if t == nil {
		return nil, fmt.Errorf("%w: missing text settings", domain.ErrInvalidSpec)
	}
	if t.Content == "" {
		return nil, ErrEmptyWatermark
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: scale %g", domain.ErrInvalidGeometry, scale)
	}

	size := math.Max(1, t.FontSizePx*scale)
	if err := CheckEdges(size, size, c.maxEdge); err != nil {
		return nil, err
	}
	h, err := c.fonts.Load(t.FontFamily, size, t.Content, t.Bold, t.Italic)
	if err != nil {
		c.logger.Warn().Err(err).Str("family", t.FontFamily).Msg("Font load failed, using default font")
		h, err = c.fonts.Load(c.fonts.DefaultFamily(), size, t.Content, t.Bold, t.Italic)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFontLoad, err)
		}
	}

	ink := glyph.Bounds(h, t.Content)
	inkW := (ink.Max.X - ink.Min.X).Ceil()
	inkH := (ink.Max.Y - ink.Min.Y).Ceil()
	if inkW <= 0 || inkH <= 0 {
		return nil, ErrEmptyWatermark
	}

	var (
		strokeWidth   int
		strokeOffset  image.Point
		shadowOffset  image.Point
		shadowBlur    float64
		outlineEffect = spec.Effects.Outline
		shadowEffect  = spec.Effects.Shadow
	)
	if outlineEffect != nil {
		strokeWidth = scaledLength(outlineEffect.Width, scale)
		strokeOffset = scaledOffset(outlineEffect.Offset, scale)
	}
	if shadowEffect != nil {
		shadowOffset = scaledOffset(shadowEffect.Offset, scale)
		shadowBlur = shadowEffect.BlurRadius * scale
	}

	shearPad := 0
	if h.SimulateItalic {
		shearPad = int(math.Ceil(italicShear*float64(inkH)/2)) + 1
	}
	pad := minPadding + strokeWidth + maxAbs(strokeOffset) + maxAbs(shadowOffset) + int(math.Ceil(3*shadowBlur)) + shearPad + 1

	if err := CheckEdges(float64(inkW+2*pad), float64(inkH+2*pad), c.maxEdge); err != nil {
		return nil, err
	}
	canvasRect := image.Rect(0, 0, inkW+2*pad, inkH+2*pad)
	dot := fixed.Point26_6{
		X: fixed.I(pad) - ink.Min.X,
		Y: fixed.I(pad) - ink.Min.Y,
	}

	glyphs := image.NewAlpha(canvasRect)
	drawRun(glyphs, h.Face, dot, t.Content)
	if h.SimulateBold {
		for _, off := range boldOffsets {
			drawRun(glyphs, h.Face, dot.Add(fixed.P(off.X, off.Y)), t.Content)
		}
	}
	if h.SimulateItalic {
		glyphs = shearMask(glyphs, italicShear, int(math.Round(italicLiftPx*scale)))
	}

	opacity := float64(t.Opacity) / 100
	canvas := image.NewRGBA(canvasRect)

	if shadowEffect != nil {
		layer := blurredLayer(shifted(glyphs, shadowOffset), shadowEffect.Color, shadowBlur)
		alpha := alphaOf(math.Min(shadowCeiling, opacity*shadowStrength))
		if alpha > 0 {
			draw.DrawMask(canvas, canvasRect, layer, image.Point{}, image.NewUniform(alphaColor(alpha)), image.Point{}, draw.Over)
		}
	}
	if outlineEffect != nil && strokeWidth > 0 {
		paintMask(canvas, strokeMask(glyphs, strokeWidth, strokeOffset), outlineEffect.Color, alphaOf(math.Min(1, opacity*outlineBoost)))
	}
	paintMask(canvas, glyphs, t.Color, alphaOf(opacity))

	var styled image.Image = canvas
	if spec.RotationDegrees != 0 {
		styled = rotateExpand(canvas, spec.RotationDegrees)
	}

	crop := opaqueBounds(styled)
	if crop.Empty() {
		return nil, ErrEmptyWatermark
	}

	return &Layer{Bitmap: toRGBA(styled, crop), Notice: h.Notice}, nil
}

// BuildImage scales, fades and rotates a decoded watermark image. scale is
// the preview compression scale, 1 for export.
func (c *Compositor) BuildImage(spec domain.WatermarkSpec, mark image.Image, scale float64) (*Layer, error) {
	iw := spec.Image
	if iw == nil {
		return nil, fmt.Errorf("%w: missing image settings", domain.ErrInvalidSpec)
	}
	if mark == nil || mark.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty watermark image", domain.ErrWatermarkSource)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: scale %g", domain.ErrInvalidGeometry, scale)
	}

	factor := iw.ScalePercent / 100 * scale
	mb := mark.Bounds()
	if err := CheckEdges(math.Round(float64(mb.Dx())*factor), math.Round(float64(mb.Dy())*factor), c.maxEdge); err != nil {
		return nil, err
	}
	w := scaledLength(mb.Dx(), factor)
	hgt := scaledLength(mb.Dy(), factor)
	if w < 1 {
		w = 1
	}
	if hgt < 1 {
		hgt = 1
	}

	var resized *image.NRGBA
	if w == mb.Dx() && hgt == mb.Dy() {
		resized = imaging.Clone(mark)
	} else {
		resized = imaging.Resize(mark, w, hgt, imaging.Lanczos)
	}
	multiplyAlpha(resized, float64(iw.Opacity)/100)

	rotated := rotateExpand(resized, spec.RotationDegrees)
	return &Layer{Bitmap: toRGBA(rotated, rotated.Bounds())}, nil
}

func drawRun(dst *image.Alpha, face font.Face, dot fixed.Point26_6, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Opaque,
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)
}

func scaledLength(v int, scale float64) int {
	if v <= 0 {
		return 0
	}
	out := int(math.Round(float64(v) * scale))
	if out < 1 {
		return 1
	}
	return out
}

func scaledOffset(o domain.Offset, scale float64) image.Point {
	return image.Pt(int(math.Round(float64(o.DX)*scale)), int(math.Round(float64(o.DY)*scale)))
}

func maxAbs(p image.Point) int {
	x, y := p.X, p.Y
	if x < 0 {
		x = -x
	}
	if y < 0 {
		y = -y
	}
	if x > y {
		return x
	}
	return y
}
