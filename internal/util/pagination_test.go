package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		page, size         int
		wantFrom, wantSize int
	}{
		{1, 10, 0, 10},
		{3, 20, 40, 20},
		{0, 0, 0, DefaultPageSize},
		{-2, 500, 0, DefaultPageSize},
	}
	for _, tt := range tests {
		from, size := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantFrom, from)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 4, ParseIntDefault("4", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 1, ParseIntDefault("four", 1))
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 2, Size: 3, Total: 4, TotalPages: 2, HasPrev: true}, NewMeta(2, 3, 4))
	assert.Equal(t, Meta{Page: 1, Size: 3, Total: 4, TotalPages: 2, HasNext: true}, NewMeta(1, 3, 4))
	assert.Equal(t, int64(0), NewMeta(1, 10, 0).TotalPages)
}
