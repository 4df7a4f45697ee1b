package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"photo-watermark/internal/domain"
	"photo-watermark/internal/usecase/processor/geometry"
	"photo-watermark/internal/usecase/processor/glyph"
	"photo-watermark/internal/usecase/processor/operations"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wb-go/wbf/zlog"
)

const (
	DefaultRenderCacheSize = 32
	DefaultSourceCacheSize = 4
	// MaxCompressionScale is the largest preview scale a caller may pin.
	MaxCompressionScale = 16
)

type RenderState int

const (
	Uncomposited RenderState = iota
	Composited
)

type Options struct {
	PreviewMinEdge  int
	PreviewMaxEdge  int
	RenderCacheSize int
	SourceCacheSize int
	TextPolicy      geometry.Policy
	ImagePolicy     geometry.Policy
	GridMargin      int
	BoundaryMargin  int
	EdgeAllowance   int
	// MaxEdge bounds preview, layer and export bitmaps.
	MaxEdge int
}

func DefaultOptions() Options {
	return Options{
		PreviewMinEdge:  operations.DefaultPreviewMinEdge,
		PreviewMaxEdge:  operations.DefaultPreviewMaxEdge,
		RenderCacheSize: DefaultRenderCacheSize,
		SourceCacheSize: DefaultSourceCacheSize,
		TextPolicy:      geometry.CenterOnRatio,
		ImagePolicy:     geometry.CenterOnRatio,
		GridMargin:      geometry.DefaultGridMargin,
		BoundaryMargin:  geometry.DefaultBoundaryMargin,
		EdgeAllowance:   geometry.DefaultEdgeAllowance,
		MaxEdge:         operations.DefaultMaxEdge,
	}
}

type cacheEntry struct {
	key    uint64
	bitmap *image.RGBA
	info   domain.RenderInfo
}

// Renderer composites watermarks onto photos for preview and export. It is
// the only entry point callers use; every call is serialised so a single
// Renderer can back concurrent request handlers.
type Renderer struct {
	mu         sync.Mutex
	mapper     *geometry.Mapper
	boundary   *geometry.BoundaryChecker
	compositor *operations.Compositor
	scaler     *operations.PreviewScaler
	resizer    *operations.Resizer
	policies   map[domain.WatermarkKind]geometry.Policy
	cache      *lru.Cache[string, *cacheEntry]
	sources    *sourceCache
	zoom       map[string]float64
	override   float64
	notified   map[string]bool
	maxEdge    int
	logger     *zlog.Zerolog
}

func NewRenderer(fonts *glyph.Library, opts Options, logger *zlog.Zerolog) (*Renderer, error) {
	if logger == nil {
		logger = &zlog.Logger
	}
	if opts.RenderCacheSize <= 0 {
		opts.RenderCacheSize = DefaultRenderCacheSize
	}
	if opts.SourceCacheSize <= 0 {
		opts.SourceCacheSize = DefaultSourceCacheSize
	}
	if opts.MaxEdge <= 0 {
		opts.MaxEdge = operations.DefaultMaxEdge
	}

	cache, err := lru.New[string, *cacheEntry](opts.RenderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}
	sources, err := newSourceCache(opts.SourceCacheSize)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		mapper:     geometry.NewMapper(logger, opts.GridMargin),
		boundary:   geometry.NewBoundaryChecker(opts.BoundaryMargin, opts.EdgeAllowance),
		compositor: operations.NewCompositor(fonts, logger).WithMaxEdge(opts.MaxEdge),
		scaler:     operations.NewPreviewScaler(opts.PreviewMinEdge, opts.PreviewMaxEdge),
		resizer:    operations.NewResizer(opts.MaxEdge),
		policies: map[domain.WatermarkKind]geometry.Policy{
			domain.KindText:  opts.TextPolicy,
			domain.KindImage: opts.ImagePolicy,
		},
		cache:    cache,
		sources:  sources,
		zoom:     make(map[string]float64),
		notified: make(map[string]bool),
		maxEdge:  opts.MaxEdge,
		logger:   logger,
	}, nil
}

// SetCompressionScale pins the preview scale for subsequent renders. A
// scale outside (0, MaxCompressionScale] is rejected and leaves the current
// setting alone.
func (r *Renderer) SetCompressionScale(scale float64) error {
	if !(scale > 0 && scale <= MaxCompressionScale) {
		r.logger.Warn().Float64("compression_scale", scale).Msg("Ignoring invalid compression scale")
		return fmt.Errorf("%w: compression scale %g", domain.ErrInvalidGeometry, scale)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = scale
	return nil
}

func (r *Renderer) ClearCompressionScale() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = 0
}

// SetZoomScale records the display zoom for one image. Zoom is applied by
// the viewer after compositing and never invalidates the cache.
func (r *Renderer) SetZoomScale(path string, zoom float64) error {
	if zoom <= 0 {
		return fmt.Errorf("%w: zoom %g", domain.ErrInvalidGeometry, zoom)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zoom[path] = zoom
	return nil
}

// Context returns the last preview context of path.
func (r *Renderer) Context(path string) (domain.RenderContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache.Peek(path)
	if !ok {
		return domain.RenderContext{}, false
	}
	return domain.RenderContext{
		SourceDimensions: entry.info.SourceDimensions,
		CompressionScale: entry.info.CompressionScale,
		ZoomScale:        r.zoomFor(path),
	}, true
}

func (r *Renderer) State(path string) RenderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache.Contains(path) {
		return Composited
	}
	return Uncomposited
}

func (r *Renderer) Invalidate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Remove(path)
	r.sources.remove(path)
}

// NewDragSession starts from the zoom recorded for path and the scale of
// its last preview.
func (r *Renderer) NewDragSession(path string, origin domain.Point) (*geometry.DragSession, error) {
	rc, ok := r.Context(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s has not been previewed", domain.ErrInvalidGeometry, path)
	}
	d := geometry.NewDragSession(r.mapper)
	d.Start(origin, rc.ZoomScale, rc.CompressionScale)
	return d, nil
}

// RenderPreview composites spec onto a preview-sized copy of the photo.
// An empty target selects the configured preview band. The returned info
// carries the spec with its anchor resolved to an absolute source-space
// position; callers store that spec.
func (r *Renderer) RenderPreview(ctx context.Context, path string, spec domain.WatermarkSpec, target domain.Size) (*image.RGBA, domain.RenderInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, domain.RenderInfo{}, err
	}
	if err := spec.Validate(); err != nil {
		return nil, domain.RenderInfo{}, err
	}

	src, stamp, err := r.sources.load(path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", path).Msg("Failed to load source image")
		return nil, domain.RenderInfo{}, err
	}
	srcSize := sizeOf(src)

	scale := r.override
	if scale <= 0 {
		scale, err = r.scaler.Scale(srcSize, target)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("Preview scale unavailable")
			return nil, domain.RenderInfo{}, err
		}
	}
	if err := operations.CheckEdges(float64(srcSize.Width)*scale, float64(srcSize.Height)*scale, r.maxEdge); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Float64("compression_scale", scale).Msg("Preview too large")
		return nil, domain.RenderInfo{}, err
	}

	key, err := digest(path, stamp, spec, scale, target)
	if err != nil {
		return nil, domain.RenderInfo{}, err
	}
	if entry, ok := r.cache.Get(path); ok && entry.key == key {
		info := entry.info
		info.CacheHit = true
		info.Notices = nil
		r.logger.Debug().Str("path", path).Msg("Preview cache hit")
		return entry.bitmap, info, nil
	}

	base, previewSize := r.scaler.Base(src, scale)
	canvas := image.NewRGBA(image.Rect(0, 0, previewSize.Width, previewSize.Height))
	draw.Draw(canvas, canvas.Bounds(), base, base.Bounds().Min, draw.Src)

	info := domain.RenderInfo{
		SourceDimensions:  srcSize,
		PreviewDimensions: previewSize,
		CompressionScale:  scale,
	}

	layer, notices := r.buildLayer(spec, scale)
	if err := r.place(canvas, layer, spec, scale, &info); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("Watermark placement failed, returning base image")
		return canvas, info, nil
	}
	info.Notices = r.firstNotices(notices)

	r.cache.Add(path, &cacheEntry{key: key, bitmap: canvas, info: info})

	r.logger.Debug().
		Str("path", path).
		Float64("compression_scale", scale).
		Int("x", info.Position.X).
		Int("y", info.Position.Y).
		Bool("out_of_bounds", info.Boundary.OutOfBounds).
		Msg("Preview rendered")

	return canvas, info, nil
}

// RenderExport composites at full source resolution, then applies the
// optional export resize with a Lanczos filter.
func (r *Renderer) RenderExport(ctx context.Context, path string, spec domain.WatermarkSpec, resize domain.ResizeSpec) (*image.RGBA, domain.RenderInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, domain.RenderInfo{}, err
	}
	if err := spec.Validate(); err != nil {
		return nil, domain.RenderInfo{}, err
	}

	src, _, err := r.sources.load(path)
	if err != nil {
		return nil, domain.RenderInfo{}, err
	}
	srcSize := sizeOf(src)

	canvas := image.NewRGBA(image.Rect(0, 0, srcSize.Width, srcSize.Height))
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	info := domain.RenderInfo{
		SourceDimensions:  srcSize,
		PreviewDimensions: srcSize,
		CompressionScale:  1,
	}

	layer, notices := r.buildLayer(spec, 1)
	if err := r.place(canvas, layer, spec, 1, &info); err != nil {
		return nil, info, fmt.Errorf("failed to place watermark: %w", err)
	}
	info.Notices = r.firstNotices(notices)

	out, err := r.resizer.Process(canvas, resize)
	if err != nil {
		return nil, info, err
	}
	if rgba, ok := out.(*image.RGBA); ok {
		return rgba, info, nil
	}

	b := out.Bounds()
	final := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(final, final.Bounds(), out, b.Min, draw.Src)
	info.PreviewDimensions = domain.Size{Width: b.Dx(), Height: b.Dy()}
	return final, info, nil
}

// buildLayer never fails the render: a broken watermark yields no layer
// and a notice.
func (r *Renderer) buildLayer(spec domain.WatermarkSpec, scale float64) (*operations.Layer, []string) {
	var (
		layer *operations.Layer
		err   error
	)

	switch spec.Kind {
	case domain.KindText:
		layer, err = r.compositor.BuildText(spec, scale)
	case domain.KindImage:
		var mark image.Image
		mark, _, err = r.sources.load(spec.Image.SourcePath)
		if err == nil {
			layer, err = r.compositor.BuildImage(spec, mark, scale)
		} else {
			err = fmt.Errorf("%w: %v", domain.ErrWatermarkSource, err)
		}
	}

	switch {
	case err == nil:
		if layer.Notice != "" {
			return layer, []string{layer.Notice}
		}
		return layer, nil
	case errors.Is(err, operations.ErrEmptyWatermark):
		return nil, nil
	case errors.Is(err, domain.ErrWatermarkSource):
		r.logger.Warn().Err(err).Str("watermark", spec.Image.SourcePath).Msg("Watermark image unavailable, layer skipped")
		return nil, []string{"watermark image could not be loaded: " + spec.Image.SourcePath}
	default:
		r.logger.Warn().Err(err).Str("kind", string(spec.Kind)).Msg("Watermark layer skipped")
		return nil, []string{"watermark could not be rendered"}
	}
}

// place resolves the anchor in source space, pastes the layer at the
// matching canvas position and fills in position, footprint and boundary.
func (r *Renderer) place(canvas *image.RGBA, layer *operations.Layer, spec domain.WatermarkSpec, scale float64, info *domain.RenderInfo) error {
	info.Spec = spec

	footprint := domain.Size{}
	if layer != nil {
		var err error
		footprint, err = r.mapper.ScaleSize(layer.Size(), 1/scale)
		if err != nil {
			return err
		}
	}

	abs, err := r.mapper.ResolveAnchor(spec.Anchor, footprint, info.SourceDimensions, r.policies[spec.Kind])
	if err != nil {
		return err
	}
	at, err := r.mapper.ToPreviewSpace(abs, scale)
	if err != nil {
		return err
	}

	info.Position = abs
	info.PreviewPosition = at
	info.Footprint = footprint

	// Without a layer there is no footprint to centre, so a relative
	// anchor stays relative until the watermark can be drawn.
	if layer == nil {
		return nil
	}

	info.Spec = spec.WithAnchor(domain.Absolute(abs.X, abs.Y))
	info.Boundary = r.boundary.Check(domain.Rect{X: abs.X, Y: abs.Y, Width: footprint.Width, Height: footprint.Height}, info.SourceDimensions)

	dst := layer.Bitmap.Bounds().Sub(layer.Bitmap.Bounds().Min).Add(image.Pt(at.X, at.Y))
	draw.Draw(canvas, dst, layer.Bitmap, layer.Bitmap.Bounds().Min, draw.Over)
	return nil
}

func (r *Renderer) firstNotices(notices []string) []string {
	var out []string
	for _, n := range notices {
		if r.notified[n] {
			continue
		}
		r.notified[n] = true
		out = append(out, n)
	}
	return out
}

func (r *Renderer) zoomFor(path string) float64 {
	if z, ok := r.zoom[path]; ok {
		return z
	}
	return 1
}

func sizeOf(img image.Image) domain.Size {
	b := img.Bounds()
	return domain.Size{Width: b.Dx(), Height: b.Dy()}
}

func fileStamp(path string) (fileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return fileInfo{}, err
	}
	return fileInfo{ModTime: st.ModTime().UnixNano(), Size: st.Size()}, nil
}
