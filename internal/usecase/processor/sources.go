package processor

import (
	"encoding/json"
	"fmt"
	"image"

	"photo-watermark/internal/domain"

	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
)

type fileInfo struct {
	ModTime int64
	Size    int64
}

type sourceEntry struct {
	stamp fileInfo
	img   image.Image
}

// sourceCache keeps recently decoded files keyed by path. An entry is
// reused only while the file's mtime and size are unchanged.
type sourceCache struct {
	entries *lru.Cache[string, sourceEntry]
}

func newSourceCache(size int) (*sourceCache, error) {
	entries, err := lru.New[string, sourceEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %w", err)
	}
	return &sourceCache{entries: entries}, nil
}

func (c *sourceCache) load(path string) (image.Image, fileInfo, error) {
	stamp, err := fileStamp(path)
	if err != nil {
		c.entries.Remove(path)
		return nil, fileInfo{}, fmt.Errorf("%w: %v", domain.ErrSourceImage, err)
	}
	if e, ok := c.entries.Get(path); ok && e.stamp == stamp {
		return e.img, stamp, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fileInfo{}, fmt.Errorf("%w: failed to decode %s: %v", domain.ErrSourceImage, path, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fileInfo{}, fmt.Errorf("%w: %s has no pixels", domain.ErrSourceImage, path)
	}

	c.entries.Add(path, sourceEntry{stamp: stamp, img: img})
	return img, stamp, nil
}

func (c *sourceCache) remove(path string) {
	c.entries.Remove(path)
}

type renderKey struct {
	Path      string
	Source    fileInfo
	Watermark fileInfo
	Spec      domain.WatermarkSpec
	Scale     float64
	Target    domain.Size
}

// digest identifies one preview render. The watermark image stamp is part
// of the key so replacing a logo on disk forces a re-render.
func digest(path string, stamp fileInfo, spec domain.WatermarkSpec, scale float64, target domain.Size) (uint64, error) {
	key := renderKey{
		Path:   path,
		Source: stamp,
		Spec:   spec,
		Scale:  scale,
		Target: target,
	}
	if spec.Kind == domain.KindImage && spec.Image != nil {
		key.Watermark, _ = fileStamp(spec.Image.SourcePath)
	}

	data, err := json.Marshal(key)
	if err != nil {
		return 0, fmt.Errorf("failed to encode render key: %w", err)
	}
	return xxhash.Sum64(data), nil
}
