package export

import (
	"path/filepath"
	"strings"

	"photo-watermark/internal/domain"
)

// OutputFormat is the requested format, else the source's own format
// when it can be encoded, else JPEG.
func OutputFormat(source string, opts domain.ExportOptions) domain.ImageFormat {
	if opts.Format != "" {
		return opts.Format
	}
	if f, ok := domain.FormatFromPath(source); ok {
		return f
	}
	return domain.FormatJPEG
}

// OutputName applies the naming rule: prefix + base name + suffix, with the
// extension of the output format, below OutputDir.
func OutputName(source string, opts domain.ExportOptions) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := opts.Naming.Prefix + base + opts.Naming.Suffix + OutputFormat(source, opts).Extension()
	if opts.OutputDir == "" {
		return name
	}
	return filepath.Join(opts.OutputDir, name)
}

func samePath(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aa == bb
}
