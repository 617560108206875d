package util

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer

	err := PrintJSON(&buf, map[string]string{"title": "Annual Conference"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"title": "Annual Conference"}`, buf.String())
	assert.Contains(t, buf.String(), "\n  \"title\"")
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer

	err := PrintYAML(&buf, map[string]string{"title": "Annual Conference"})
	require.NoError(t, err)

	assert.Equal(t, "title: Annual Conference\n", buf.String())
}

func TestFormatTimer(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{
			name: "zero",
			ms:   0,
			want: "00:00",
		},
		{
			name: "seconds_only",
			ms:   30000,
			want: "00:30",
		},
		{
			name: "minutes",
			ms:   570000,
			want: "09:30",
		},
		{
			name: "hours",
			ms:   3723000,
			want: "1:02:03",
		},
		{
			name: "overrun_keeps_sign",
			ms:   -50000,
			want: "-00:50",
		},
		{
			name: "subsecond_truncates",
			ms:   1999,
			want: "00:01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimer(tt.ms))
		})
	}
}

func TestFormatClock(t *testing.T) {
	ms := time.Date(2024, 3, 1, 10, 15, 30, 0, time.Local).UnixMilli()
	assert.Equal(t, "10:15:30", FormatClock(ms))
}
