package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "photo.jpg", want: "photo.jpg"},
		{name: "/exports/photo.jpg", want: "exports/photo.jpg"},
		{name: `batch\photo.jpg`, want: "batch/photo.jpg"},
		{name: "a/../b/./c.png", want: "b/c.png"},
		{name: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, objectKey(tt.name), tt.name)
	}
}

func TestLocation(t *testing.T) {
	s := &ObjectStore{bucket: "watermarks"}
	assert.Equal(t, "s3://watermarks/exports/a.png", s.Location("exports/a.png"))
}
