//go:build !linux

package helpers

// TotalSystemMemoryMB is only implemented on Linux.
func TotalSystemMemoryMB() int {
	return 0
}
