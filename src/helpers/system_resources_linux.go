//go:build linux

package helpers

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TotalSystemMemoryMB reads MemTotal from /proc/meminfo.
func TotalSystemMemoryMB() int {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		var kb int
		if _, err := fmt.Sscanf(line, "MemTotal: %d kB", &kb); err == nil {
			return kb / 1024
		}
		return 0
	}
	return 0
}
