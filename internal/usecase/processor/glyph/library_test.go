package glyph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	l, err := NewLibrary(Options{}, nil)
	require.NoError(t, err)
	return l
}

func TestLoadBuiltinVariants(t *testing.T) {
	l := newTestLibrary(t)

	for _, tc := range []struct {
		bold, italic bool
	}{{false, false}, {true, false}, {false, true}, {true, true}} {
		h, err := l.Load("Go", 32, "Hello", tc.bold, tc.italic)
		require.NoError(t, err)
		assert.False(t, h.SimulateBold)
		assert.False(t, h.SimulateItalic)
		assert.False(t, h.Substituted)
		assert.Equal(t, BuiltinFamily, h.Family)
	}
}

func TestLoadSimulatesMissingVariants(t *testing.T) {
	l := newTestLibrary(t)
	require.NoError(t, l.Register("Solo Sans", StyleRegular, goregular.TTF))

	h, err := l.Load("solo-sans", 24, "abc", true, true)
	require.NoError(t, err)
	assert.True(t, h.SimulateBold)
	assert.True(t, h.SimulateItalic)
	assert.False(t, h.Substituted)

	h, err = l.Load("Solo Sans", 24, "abc", false, true)
	require.NoError(t, err)
	assert.False(t, h.SimulateBold)
	assert.True(t, h.SimulateItalic)
}

func TestLoadUnknownFamilyFallsBack(t *testing.T) {
	l := newTestLibrary(t)

	h, err := l.Load("No Such Font", 20, "abc", false, false)
	require.NoError(t, err)
	assert.True(t, h.Substituted)
	assert.Equal(t, BuiltinFamily, h.Family)
	assert.NotEmpty(t, h.Notice)
}

func TestLoadCachesFaces(t *testing.T) {
	l := newTestLibrary(t)

	a, err := l.Load("Go", 20, "abc", true, false)
	require.NoError(t, err)
	b, err := l.Load("go", 20, "xyz", true, false)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := l.Load("Go", 21, "abc", true, false)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestLoadRejectsNonPositiveSize(t *testing.T) {
	l := newTestLibrary(t)
	_, err := l.Load("Go", 0, "abc", false, false)
	assert.Error(t, err)
}

func TestCJKWithoutCapableFontKeepsFamily(t *testing.T) {
	l := newTestLibrary(t)

	h, err := l.Load("Go", 20, "水印", false, false)
	require.NoError(t, err)
	assert.Equal(t, BuiltinFamily, h.Family)
	assert.False(t, l.rendersCJK(h.Font))
}

func TestMeasure(t *testing.T) {
	l := newTestLibrary(t)

	size, err := l.Measure("", "Go", 40)
	require.NoError(t, err)
	assert.Zero(t, size.Width)
	assert.Zero(t, size.Height)

	small, err := l.Measure("Hi", "Go", 20)
	require.NoError(t, err)
	large, err := l.Measure("Hi", "Go", 80)
	require.NoError(t, err)

	assert.Positive(t, small.Width)
	assert.Positive(t, small.Height)
	assert.Greater(t, large.Width, small.Width*3)
	assert.Greater(t, large.Height, small.Height*3)
}

func TestContainsCJK(t *testing.T) {
	assert.True(t, ContainsCJK("abc中"))
	assert.True(t, ContainsCJK("カタカナ"))
	assert.True(t, ContainsCJK("한국어"))
	assert.False(t, ContainsCJK("plain ascii"))
	assert.False(t, ContainsCJK(""))
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		in     string
		family string
		style  Style
	}{
		{"DejaVuSans-BoldOblique.ttf", "DejaVuSans", StyleBoldItalic},
		{"Roboto_Italic.ttf", "Roboto", StyleItalic},
		{"Roboto-Bold.ttf", "Roboto", StyleBold},
		{"Roboto-Regular.ttf", "Roboto", StyleRegular},
		{"arial.ttf", "arial", StyleRegular},
		{"Noto-Sans-CJK.ttf", "Noto-Sans-CJK", StyleRegular},
	}
	for _, tt := range tests {
		family, style := parseFileName(tt.in)
		assert.Equal(t, tt.family, family, tt.in)
		assert.Equal(t, tt.style, style, tt.in)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Custom-Regular.ttf"), goregular.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttf"), []byte("not a font"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	l, err := NewLibrary(Options{Dirs: []string{dir}}, nil)
	require.NoError(t, err)
	assert.True(t, l.HasFamily("Custom"))

	n, err := l.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
