package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePickupDeadline(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		window string
		want   time.Time
	}{
		{
			name:   "afternoon window",
			date:   "2024-06-01",
			window: "2:00 PM - 4:00 PM",
			want:   time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC),
		},
		{
			name:   "noon end",
			date:   "2024-06-01",
			window: "11:00 AM - 12:00 PM",
			want:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "morning window",
			date:   "2024-06-01",
			window: "12:00 AM - 1:00 AM",
			want:   time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC),
		},
		{
			name:   "half hour end",
			date:   "2024-12-31",
			window: "9:00 AM - 11:30 AM",
			want:   time.Date(2024, 12, 31, 11, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePickupDeadline(tt.date, tt.window, time.UTC)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParsePickupDeadlineFormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		date   string
		window string
	}{
		{"missing suffix", "2024-06-01", "2:00 - 4:00"},
		{"unknown suffix", "2024-06-01", "2:00 XM - 4:00 YM"},
		{"non-numeric hour", "2024-06-01", "2:00 PM - four PM"},
		{"no separator", "2024-06-01", "2:00 PM 4:00 PM"},
		{"bad date", "01-06-2024", "2:00 PM - 4:00 PM"},
		{"hour out of range", "2024-06-01", "2:00 PM - 13:00 PM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePickupDeadline(tt.date, tt.window, time.UTC)
			assert.Error(t, err)
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in         string
		hour, mins int
	}{
		{"12:00 AM", 0, 0},
		{"12:00 PM", 12, 0},
		{"1:15 AM", 1, 15},
		{"11:59 PM", 23, 59},
		{"2:00 pm", 14, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := parseClockTime(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.mins, m)
		})
	}
}
