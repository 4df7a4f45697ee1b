package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

// ParseFormat maps a user-chosen extension or format name onto an
// encoder, accepting jpg/jpeg/png/bmp/tif/tiff with or without the dot.
func ParseFormat(s string) (ImageFormat, bool) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "bmp":
		return FormatBMP, true
	case "tif", "tiff":
		return FormatTIFF, true
	default:
		return "", false
	}
}

func FormatFromPath(path string) (ImageFormat, bool) {
	return ParseFormat(filepath.Ext(path))
}

func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatBMP:
		return ".bmp"
	case FormatTIFF:
		return ".tiff"
	default:
		return ".jpg"
	}
}

func (f ImageFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}

type ExportStatus string

const (
	StatusQueued    ExportStatus = "queued"
	StatusRunning   ExportStatus = "running"
	StatusCompleted ExportStatus = "completed"
	StatusPartial   ExportStatus = "partial"
	StatusFailed    ExportStatus = "failed"
	StatusCancelled ExportStatus = "cancelled"
)

// ExportedImage records one written output file.
type ExportedImage struct {
	SourcePath string
	OutputPath string
	Format     ImageFormat
	Size       int64
	Width      int
	Height     int
	CreatedAt  time.Time
}

const (
	DefaultJPEGQuality    = 95
	DefaultFailedNameList = 5
)
