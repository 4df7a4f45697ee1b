package watermark

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrPathNotAllowed = errors.New("path outside the configured root")
)
