package geometry

import (
	"errors"

	"photo-watermark/internal/domain"
)

var ErrNotDragging = errors.New("no drag in progress")

type dragState int

const (
	dragIdle dragState = iota
	dragActive
)

// DragSession tracks a single-pointer drag. Each Move receives the total
// pointer delta since Start in on-screen pixels, so rounding never
// accumulates across ticks.
type DragSession struct {
	mapper      *Mapper
	state       dragState
	origin      domain.Point
	current     domain.Point
	zoom        float64
	compression float64
}

func NewDragSession(mapper *Mapper) *DragSession {
	return &DragSession{mapper: mapper}
}

func (d *DragSession) Start(origin domain.Point, zoom, compression float64) {
	d.state = dragActive
	d.origin = origin
	d.current = origin
	d.zoom = zoom
	d.compression = compression
}

func (d *DragSession) Active() bool {
	return d.state == dragActive
}

func (d *DragSession) Move(dx, dy float64) (domain.Point, error) {
	if d.state != dragActive {
		return d.current, ErrNotDragging
	}
	p, err := d.mapper.ApplyDragDelta(d.origin, dx, dy, d.zoom, d.compression)
	if err != nil {
		return d.current, err
	}
	d.current = p
	return p, nil
}

// End finishes the drag and returns the final source-space position.
func (d *DragSession) End() (domain.Point, error) {
	if d.state != dragActive {
		return d.current, ErrNotDragging
	}
	d.state = dragIdle
	return d.current, nil
}
