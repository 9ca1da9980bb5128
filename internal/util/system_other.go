//go:build !linux

package util

func affinityCores() int {
	return 0
}
