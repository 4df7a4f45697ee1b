package geometry

import (
	"fmt"
	"strings"

	"photo-watermark/internal/domain"
)

const (
	DefaultBoundaryMargin = 5
	// DefaultEdgeAllowance widens the right and top edges only.
	// TODO: drop once the preview widgets stop reporting positions a couple
	// of pixels past the right/top border.
	DefaultEdgeAllowance = 2
)

type BoundaryChecker struct {
	margin    int
	allowance int
}

func NewBoundaryChecker(margin, allowance int) *BoundaryChecker {
	if margin < 0 {
		margin = DefaultBoundaryMargin
	}
	if allowance < 0 {
		allowance = DefaultEdgeAllowance
	}
	return &BoundaryChecker{margin: margin, allowance: allowance}
}

// Check reports whether a placed source-space box leaves the canvas by more
// than the safety margin. A box at exactly (0,0) is the "not yet
// positioned" sentinel and is never flagged.
func (b *BoundaryChecker) Check(box domain.Rect, canvas domain.Size) domain.BoundaryResult {
	if box.X == 0 && box.Y == 0 {
		return domain.BoundaryResult{}
	}
	if canvas.Empty() {
		return domain.BoundaryResult{Reason: "canvas size unknown"}
	}

	var edges []domain.Edge
	if box.X < -b.margin {
		edges = append(edges, domain.EdgeLeft)
	}
	if box.Y < -(b.margin + b.allowance) {
		edges = append(edges, domain.EdgeTop)
	}
	if box.X+box.Width > canvas.Width+b.margin+b.allowance {
		edges = append(edges, domain.EdgeRight)
	}
	if box.Y+box.Height > canvas.Height+b.margin {
		edges = append(edges, domain.EdgeBottom)
	}

	if len(edges) == 0 {
		return domain.BoundaryResult{}
	}

	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = string(e)
	}
	return domain.BoundaryResult{
		OutOfBounds: true,
		Edges:       edges,
		Reason: fmt.Sprintf("watermark at (%d,%d) %dx%d extends past the %s edge of the %dx%d image",
			box.X, box.Y, box.Width, box.Height, strings.Join(names, "/"), canvas.Width, canvas.Height),
	}
}
