package app

import (
	"context"
	"fmt"

	"photo-watermark/internal/config"
	"photo-watermark/internal/domain"
	"photo-watermark/internal/repository/output/cloud/minio"
	"photo-watermark/internal/repository/output/local"
	"photo-watermark/internal/usecase/export"
	"photo-watermark/internal/usecase/processor"
	"photo-watermark/internal/usecase/processor/geometry"
	"photo-watermark/internal/usecase/processor/glyph"
	"photo-watermark/internal/usecase/processor/operations"

	"github.com/wb-go/wbf/zlog"
)

// NewRenderer builds the font library and the renderer from configuration.
func NewRenderer(cfg *config.Config, logger *zlog.Zerolog) (*processor.Renderer, error) {
	fonts, err := glyph.NewLibrary(glyph.Options{
		DefaultFamily: cfg.Fonts.DefaultFamily,
		CJKFamilies:   cfg.Fonts.CJKFamilies,
		Dirs:          cfg.Fonts.Dirs,
		CacheSize:     cfg.Fonts.CacheSize,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	textPolicy, ok := geometry.ParsePolicy(cfg.Preview.TextPolicy)
	if !ok {
		return nil, fmt.Errorf("unknown text placement policy %q", cfg.Preview.TextPolicy)
	}
	imagePolicy, ok := geometry.ParsePolicy(cfg.Preview.ImagePolicy)
	if !ok {
		return nil, fmt.Errorf("unknown image placement policy %q", cfg.Preview.ImagePolicy)
	}

	renderer, err := processor.NewRenderer(fonts, processor.Options{
		PreviewMinEdge:  cfg.Preview.MinEdge,
		PreviewMaxEdge:  cfg.Preview.MaxEdge,
		RenderCacheSize: cfg.Cache.Renders,
		SourceCacheSize: cfg.Cache.Sources,
		TextPolicy:      textPolicy,
		ImagePolicy:     imagePolicy,
		GridMargin:      cfg.Preview.GridMargin,
		BoundaryMargin:  cfg.Boundary.Margin,
		EdgeAllowance:   cfg.Boundary.EdgeAllowance,
		MaxEdge:         cfg.Export.MaxEdge,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return renderer, nil
}

// NewSink selects the export destination named by export.sink.
func NewSink(ctx context.Context, cfg *config.Config, logger *zlog.Zerolog) (export.Sink, error) {
	retries := cfg.DefaultRetryStrategy()
	switch cfg.Export.Sink {
	case "", "local":
		return local.NewFileStore(cfg.Export.OutputDir, retries, logger), nil
	case "minio":
		store, err := minio.NewObjectStore(ctx, cfg.MinIO, retries, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create object store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", cfg.Export.Sink)
	}
}

func NewExporter(ctx context.Context, cfg *config.Config, renderer *processor.Renderer, logger *zlog.Zerolog) (*export.Usecase, error) {
	sink, err := NewSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	var format domain.ImageFormat
	if cfg.Export.Format != "" {
		f, ok := domain.ParseFormat(cfg.Export.Format)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, cfg.Export.Format)
		}
		format = f
	}

	u := export.NewUsecase(renderer, operations.NewEncoder(), sink, cfg.Export.FailedNameList, logger)
	return u.WithDefaults(domain.ExportOptions{
		Format:  format,
		Quality: &cfg.Export.Quality,
		Naming:  domain.NamingRule{Prefix: cfg.Export.Prefix, Suffix: cfg.Export.Suffix},
	}), nil
}
