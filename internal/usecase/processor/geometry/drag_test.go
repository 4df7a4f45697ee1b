package geometry

import (
	"testing"

	"photo-watermark/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragSession(t *testing.T) {
	d := NewDragSession(NewMapper(nil, DefaultGridMargin))

	_, err := d.Move(1, 1)
	assert.ErrorIs(t, err, ErrNotDragging)

	d.Start(domain.Point{X: 400, Y: 300}, 1, 0.5)
	assert.True(t, d.Active())

	p, err := d.Move(10, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Point{X: 420, Y: 320}, p)

	p, err = d.Move(25, -5)
	require.NoError(t, err)
	assert.Equal(t, domain.Point{X: 450, Y: 290}, p)

	final, err := d.End()
	require.NoError(t, err)
	assert.Equal(t, p, final)
	assert.False(t, d.Active())

	_, err = d.End()
	assert.ErrorIs(t, err, ErrNotDragging)
}
