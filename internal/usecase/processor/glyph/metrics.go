package glyph

import (
	"fmt"
	"unicode"

	"photo-watermark/internal/domain"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const cjkProbe = "中文测试"

// FontHandle is a sized face plus the styling the compositor must fake
// because the family has no native variant for it.
type FontHandle struct {
	Face           font.Face
	Font           *truetype.Font
	Family         string
	SizePx         float64
	SimulateBold   bool
	SimulateItalic bool
	// Substituted is set when Family differs from the requested family.
	Substituted bool
	Notice      string
}

// Load resolves a face for text drawn in the requested family and style.
// CJK text prefers the requested family when it really renders CJK, then
// the curated CJK families; a missing style variant is simulated; the
// builtin default family is the last resort.
func (l *Library) Load(familyName string, sizePx float64, sample string, bold, italic bool) (*FontHandle, error) {
	if sizePx <= 0 {
		return nil, fmt.Errorf("%w: font size %g", domain.ErrFontLoad, sizePx)
	}

	needsCJK := ContainsCJK(sample)
	key := faceKey{family: normalize(familyName), size: sizePx, bold: bold, italic: italic, cjk: needsCJK}
	if h, ok := l.faces.Get(key); ok {
		return h, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fam := l.families[key.family]
	substituted := false
	notice := ""

	if needsCJK && (fam == nil || !l.rendersCJK(fam.fonts[StyleRegular])) {
		if alt := l.firstCJKFamily(); alt != nil {
			notice = fmt.Sprintf("font switched to %s to support your text", alt.name)
			fam = alt
			substituted = true
		} else {
			l.logger.Warn().Str("family", familyName).Msg("No CJK capable font available")
		}
	}

	if fam == nil {
		fam = l.families[normalize(l.defaultFamily)]
		if fam == nil {
			fam = l.families[normalize(BuiltinFamily)]
		}
		if fam == nil {
			return nil, fmt.Errorf("%w: no font for family %q", domain.ErrFontLoad, familyName)
		}
		if familyName != "" {
			substituted = true
			if notice == "" {
				notice = fmt.Sprintf("font %s is unavailable, using %s", familyName, fam.name)
			}
			l.logger.Warn().Str("requested", familyName).Str("family", fam.name).Msg("Font family not found, falling back")
		}
	}

	f, simBold, simItalic := pickStyle(fam, bold, italic)
	if f == nil {
		return nil, fmt.Errorf("%w: family %q has no usable face", domain.ErrFontLoad, fam.name)
	}

	h := &FontHandle{
		Face:           newFace(f, sizePx),
		Font:           f,
		Family:         fam.name,
		SizePx:         sizePx,
		SimulateBold:   simBold,
		SimulateItalic: simItalic,
		Substituted:    substituted,
		Notice:         notice,
	}
	l.faces.Add(key, h)
	return h, nil
}

func pickStyle(fam *family, bold, italic bool) (*truetype.Font, bool, bool) {
	if f, ok := fam.fonts[styleOf(bold, italic)]; ok {
		return f, false, false
	}
	if bold && italic {
		if f, ok := fam.fonts[StyleBold]; ok {
			return f, false, true
		}
		if f, ok := fam.fonts[StyleItalic]; ok {
			return f, true, false
		}
	}
	if f, ok := fam.fonts[StyleRegular]; ok {
		return f, bold, italic
	}
	for _, f := range fam.fonts {
		return f, bold, italic
	}
	return nil, false, false
}

func (l *Library) firstCJKFamily() *family {
	for _, name := range l.cjkFamilies {
		fam, ok := l.families[normalize(name)]
		if !ok {
			continue
		}
		if l.rendersCJK(fam.fonts[StyleRegular]) {
			return fam
		}
	}
	return nil
}

// rendersCJK checks that the probe string maps to real glyphs and has a
// non-empty ink box.
func (l *Library) rendersCJK(f *truetype.Font) bool {
	if f == nil {
		return false
	}
	if ok, cached := l.cjkSupport[f]; cached {
		return ok
	}

	ok := true
	for _, r := range cjkProbe {
		if f.Index(r) == 0 {
			ok = false
			break
		}
	}
	if ok {
		b, _ := font.BoundString(newFace(f, 24), cjkProbe)
		ok = b.Max.X > b.Min.X && b.Max.Y > b.Min.Y
	}
	l.cjkSupport[f] = ok
	return ok
}

// Measure returns the ink box of text at the family's regular style.
func (l *Library) Measure(text, familyName string, sizePx float64) (domain.Size, error) {
	if text == "" {
		return domain.Size{}, nil
	}
	h, err := l.Load(familyName, sizePx, text, false, false)
	if err != nil {
		return domain.Size{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b := Bounds(h, text)
	return domain.Size{Width: (b.Max.X - b.Min.X).Ceil(), Height: (b.Max.Y - b.Min.Y).Ceil()}, nil
}

// Bounds is the ink box of text relative to a dot at the origin. Callers
// must not use the handle's face concurrently.
func Bounds(h *FontHandle, text string) fixed.Rectangle26_6 {
	b, _ := font.BoundString(h.Face, text)
	return b
}

func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul, unicode.Bopomofo) {
			return true
		}
	}
	return false
}
