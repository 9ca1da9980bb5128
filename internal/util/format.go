// Package util provides utility functions for formatting and host inspection.
package util

import (
	"fmt"
	"math"
)

// FormatDuration formats seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 || seconds != seconds { // NaN check
		return "??:??:??"
	}

	totalSecs := int64(seconds)
	hours := totalSecs / 3600
	minutes := (totalSecs % 3600) / 60
	secs := totalSecs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// FormatDurationFromSecs formats seconds as HH:MM:SS from an int64.
func FormatDurationFromSecs(secs int64) string {
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatTimecode formats a frame number as HH:MM:SS:FF at the given rate.
// Fractional rates round the frame field up to the next whole frame count.
func FormatTimecode(frame int, fps float64) string {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return "??:??:??:??"
	}

	sign := ""
	if frame < 0 {
		sign = "-"
		frame = -frame
	}

	base := int(math.Ceil(fps))
	secs := int64(frame / base)
	ff := frame % base
	return fmt.Sprintf("%s%s:%02d", sign, FormatDurationFromSecs(secs), ff)
}

// FormatFPS formats a frame rate with two decimals, or "-" when unknown.
func FormatFPS(fps float64) string {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", fps)
}
