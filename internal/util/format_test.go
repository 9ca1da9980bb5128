package util

import (
	"math"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
		{-1, "??:??:??"},
		{math.NaN(), "??:??:??"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatDurationFromSecs(t *testing.T) {
	if got := FormatDurationFromSecs(3725); got != "01:02:05" {
		t.Errorf("FormatDurationFromSecs(3725) = %q, want %q", got, "01:02:05")
	}
}

func TestFormatTimecode(t *testing.T) {
	tests := []struct {
		frame int
		fps   float64
		want  string
	}{
		{0, 24, "00:00:00:00"},
		{23, 24, "00:00:00:23"},
		{24, 24, "00:00:01:00"},
		{24*60 + 5, 24, "00:01:00:05"},
		{30, 29.97, "00:00:01:00"},
		{-24, 24, "-00:00:01:00"},
		{10, 0, "??:??:??:??"},
		{10, math.Inf(1), "??:??:??:??"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatTimecode(tt.frame, tt.fps); got != tt.want {
				t.Errorf("FormatTimecode(%d, %v) = %q, want %q", tt.frame, tt.fps, got, tt.want)
			}
		})
	}
}

func TestFormatFPS(t *testing.T) {
	tests := []struct {
		fps  float64
		want string
	}{
		{24, "24.00"},
		{23.976, "23.98"},
		{0, "-"},
		{-3, "-"},
		{math.NaN(), "-"},
	}

	for _, tt := range tests {
		if got := FormatFPS(tt.fps); got != tt.want {
			t.Errorf("FormatFPS(%v) = %q, want %q", tt.fps, got, tt.want)
		}
	}
}
