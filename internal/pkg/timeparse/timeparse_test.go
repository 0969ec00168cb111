package timeparse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUTC_AcceptedLayouts(t *testing.T) {
	n, err := NewNormalizer("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	// All four spellings of the same local instant.
	inputs := []string{
		"2025-05-02 08:30:00",
		"02/05/2025 08:30:00",
		"2025/05/02 08:30:00",
		"2025-05-02T08:30:00",
	}

	want := time.Date(2025, 5, 2, 1, 30, 0, 0, time.UTC) // UTC+7 → minus 7h
	for _, in := range inputs {
		got, err := n.ParseUTC(in)
		require.NoError(t, err, "input %q", in)
		assert.True(t, got.Equal(want), "input %q: got %v, want %v", in, got, want)
	}
}

func TestParseUTC_Malformed(t *testing.T) {
	n, err := NewNormalizer("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	for _, in := range []string{"", "yesterday", "2025-13-40 99:99:99", "08:30:00"} {
		_, err := n.ParseUTC(in)
		assert.True(t, errors.Is(err, ErrMalformedTimestamp), "input %q", in)
	}
}

func TestRoundTrip_LocalUTCLocal(t *testing.T) {
	n, err := NewNormalizer("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	local, err := n.ParseLocal("2025-06-13 16:42:31")
	require.NoError(t, err)

	back := n.UTCToLocal(local.UTC())
	assert.Equal(t, local.Format("2006-01-02 15:04:05"), back.Format("2006-01-02 15:04:05"))
}

func TestFallbackFixedOffsets(t *testing.T) {
	tests := []struct {
		zone        string
		offsetHours int
	}{
		{"GMT+7", 7},
		{"GMT-3", -3},
		{"GMT+0", 0},
	}

	for _, tt := range tests {
		n, err := NewNormalizer(tt.zone)
		require.NoError(t, err, tt.zone)
		assert.Equal(t, tt.offsetHours, n.OffsetHours(), tt.zone)
	}

	_, err := NewNormalizer("Not/A_Zone")
	assert.Error(t, err)
}

