package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1536, "1.5 kB"},
		{104857600, "104.9 MB"},
		{2000000000, "2.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.n))
	}
}

func TestGetMaxWidthIgnoresColorCodes(t *testing.T) {
	assert.Equal(t, 0, GetMaxWidth(nil))
	assert.Equal(t, 7, GetMaxWidth([]string{"short", "longest", "\033[31mred\033[0m"}))
}
