package export

import "errors"

var (
	ErrEmptyBatch   = errors.New("export batch has no items")
	ErrInvalidBatch = errors.New("invalid export batch")
)
