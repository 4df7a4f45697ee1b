package operations

import (
	"fmt"

	"photo-watermark/internal/domain"
)

// DefaultMaxEdge bounds the width and height of every bitmap built from
// user-supplied sizes.
const DefaultMaxEdge = 16384

// CheckEdges rejects a w×h bitmap larger than limit on either edge. The
// sizes are taken as floats so an overflowing product is caught before
// any conversion.
func CheckEdges(w, h float64, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxEdge
	}
	if w > float64(limit) || h > float64(limit) {
		return fmt.Errorf("%w: %.0fx%.0f exceeds the %dpx edge limit", domain.ErrInvalidGeometry, w, h, limit)
	}
	return nil
}
