package glyph

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"photo-watermark/internal/domain"

	"github.com/golang/freetype/truetype"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

type Style int

const (
	StyleRegular Style = iota
	StyleBold
	StyleItalic
	StyleBoldItalic
)

func styleOf(bold, italic bool) Style {
	switch {
	case bold && italic:
		return StyleBoldItalic
	case bold:
		return StyleBold
	case italic:
		return StyleItalic
	default:
		return StyleRegular
	}
}

const (
	BuiltinFamily     = "Go"
	BuiltinMonoFamily = "Go Mono"
	DefaultCacheSize  = 64
)

var DefaultCJKFamilies = []string{
	"Noto Sans CJK SC",
	"Noto Sans SC",
	"Source Han Sans SC",
	"Source Han Sans",
	"WenQuanYi Micro Hei",
	"WenQuanYi Zen Hei",
	"Microsoft YaHei",
	"SimHei",
	"PingFang SC",
	"Droid Sans Fallback",
}

type Options struct {
	DefaultFamily string
	CJKFamilies   []string
	Dirs          []string
	CacheSize     int
}

type family struct {
	name  string
	fonts map[Style]*truetype.Font
}

// Library resolves font families to faces. It owns every face it hands
// out; faces are not safe for concurrent use, so callers sharing a
// Library across goroutines must serialise rendering.
type Library struct {
	mu            sync.Mutex
	families      map[string]*family
	defaultFamily string
	cjkFamilies   []string
	faces         *lru.Cache[faceKey, *FontHandle]
	cjkSupport    map[*truetype.Font]bool
	logger        *zlog.Zerolog
}

type faceKey struct {
	family string
	size   float64
	bold   bool
	italic bool
	cjk    bool
}

func NewLibrary(opts Options, logger *zlog.Zerolog) (*Library, error) {
	if logger == nil {
		logger = &zlog.Logger
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.DefaultFamily == "" {
		opts.DefaultFamily = BuiltinFamily
	}
	if opts.CJKFamilies == nil {
		opts.CJKFamilies = DefaultCJKFamilies
	}

	faces, err := lru.New[faceKey, *FontHandle](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create face cache: %w", err)
	}

	l := &Library{
		families:      make(map[string]*family),
		defaultFamily: opts.DefaultFamily,
		cjkFamilies:   opts.CJKFamilies,
		faces:         faces,
		cjkSupport:    make(map[*truetype.Font]bool),
		logger:        logger,
	}

	builtins := []struct {
		family string
		style  Style
		data   []byte
	}{
		{BuiltinFamily, StyleRegular, goregular.TTF},
		{BuiltinFamily, StyleBold, gobold.TTF},
		{BuiltinFamily, StyleItalic, goitalic.TTF},
		{BuiltinFamily, StyleBoldItalic, gobolditalic.TTF},
		{BuiltinMonoFamily, StyleRegular, gomono.TTF},
		{BuiltinMonoFamily, StyleBold, gomonobold.TTF},
		{BuiltinMonoFamily, StyleItalic, gomonoitalic.TTF},
		{BuiltinMonoFamily, StyleBoldItalic, gomonobolditalic.TTF},
	}
	for _, b := range builtins {
		if err := l.Register(b.family, b.style, b.data); err != nil {
			return nil, fmt.Errorf("failed to register builtin font %s: %w", b.family, err)
		}
	}

	for _, dir := range opts.Dirs {
		n, err := l.LoadDir(dir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("Failed to scan font directory")
			continue
		}
		logger.Debug().Str("dir", dir).Int("fonts", n).Msg("Font directory scanned")
	}

	if _, ok := l.families[normalize(l.defaultFamily)]; !ok {
		logger.Warn().Str("family", l.defaultFamily).Msg("Default font family not found, using builtin")
		l.defaultFamily = BuiltinFamily
	}

	return l, nil
}

// Register adds TrueType data as one style of a family.
func (l *Library) Register(name string, style Style, data []byte) error {
	f, err := truetype.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFontLoad, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(name, style, f)
	return nil
}

func (l *Library) add(name string, style Style, f *truetype.Font) {
	key := normalize(name)
	fam, ok := l.families[key]
	if !ok {
		fam = &family{name: name, fonts: make(map[Style]*truetype.Font)}
		l.families[key] = fam
	}
	if _, exists := fam.fonts[style]; !exists {
		fam.fonts[style] = f
	}
	l.faces.Purge()
}

// LoadDir registers every parseable .ttf/.ttc/.otf file under dir. Family and
// style come from the font's name table, falling back to the file name.
func (l *Library) LoadDir(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".ttc", ".otf":
		default:
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Debug().Err(err).Str("path", path).Msg("Skipping unreadable font")
			return nil
		}
		f, err := truetype.Parse(data)
		if err != nil {
			l.logger.Debug().Err(err).Str("path", path).Msg("Skipping unsupported font")
			return nil
		}

		fileFamily, fileStyle := parseFileName(filepath.Base(path))
		name := f.Name(truetype.NameIDFontFamily)
		style := fileStyle
		if sub := f.Name(truetype.NameIDFontSubfamily); sub != "" {
			style = parseStyle(sub)
		}

		l.mu.Lock()
		if name != "" {
			l.add(name, style, f)
		}
		l.add(fileFamily, fileStyle, f)
		l.mu.Unlock()
		count++
		return nil
	})
	return count, err
}

func (l *Library) HasFamily(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.families[normalize(name)]
	return ok
}

func (l *Library) DefaultFamily() string {
	return l.defaultFamily
}

func normalize(name string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}

var styleSuffixes = []struct {
	suffix string
	style  Style
}{
	{"bolditalic", StyleBoldItalic},
	{"boldoblique", StyleBoldItalic},
	{"italic", StyleItalic},
	{"oblique", StyleItalic},
	{"bold", StyleBold},
	{"regular", StyleRegular},
}

func parseFileName(base string) (string, Style) {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	idx := strings.LastIndexAny(name, "-_")
	if idx <= 0 {
		return name, StyleRegular
	}
	suffix := strings.ToLower(name[idx+1:])
	for _, s := range styleSuffixes {
		if suffix == s.suffix {
			return name[:idx], s.style
		}
	}
	return name, StyleRegular
}

func parseStyle(sub string) Style {
	s := normalize(sub)
	bold := strings.Contains(s, "bold") || strings.Contains(s, "black") || strings.Contains(s, "heavy")
	italic := strings.Contains(s, "italic") || strings.Contains(s, "oblique")
	return styleOf(bold, italic)
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
