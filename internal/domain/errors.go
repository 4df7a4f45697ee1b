package domain

import "errors"

var (
	ErrFontLoad          = errors.New("font load failed")
	ErrWatermarkSource   = errors.New("watermark source unavailable")
	ErrInvalidGeometry   = errors.New("invalid geometry")
	ErrExportIO          = errors.New("export write failed")
	ErrInvalidSpec       = errors.New("invalid watermark spec")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrOverwriteSource   = errors.New("export would overwrite source image")
	ErrSourceImage       = errors.New("source image unavailable")
)
