package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseCursor_RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	s, err := EncodeCourseCursor(at, "2b1c6f4e-8d3a-4f5b-9c7e-1a2b3c4d5e6f")
	require.NoError(t, err)

	c, err := DecodeCourseCursor(s)
	require.NoError(t, err)
	assert.True(t, at.Equal(c.CreatedAt))
	assert.Equal(t, "2b1c6f4e-8d3a-4f5b-9c7e-1a2b3c4d5e6f", c.ID)
}

func TestDecodeCourseCursor_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"empty", ""},
		{"not base64", "not a cursor!"},
		{"not json", base64.RawURLEncoding.EncodeToString([]byte("nope"))},
		{"missing time", base64.RawURLEncoding.EncodeToString([]byte(`{"id":"2b1c6f4e-8d3a-4f5b-9c7e-1a2b3c4d5e6f"}`))},
		{"id not a uuid", base64.RawURLEncoding.EncodeToString([]byte(`{"createdAt":"2026-03-01T09:30:00Z","id":"1 OR 1=1"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCourseCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}
