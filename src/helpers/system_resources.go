package helpers

import (
	"os"
	"runtime/debug"

	"chart-stream/src/logger"
)

const (
	minMemoryLimitMB = 256
	memoryLimitShare = 0.75
)

// RecommendedMemoryLimitMB returns 75% of physical RAM, never below 256MB, or
// 0 when the total cannot be determined.
func RecommendedMemoryLimitMB() int {
	totalMB := TotalSystemMemoryMB()
	if totalMB == 0 {
		return 0
	}

	limit := int(float64(totalMB) * memoryLimitShare)
	if limit < minMemoryLimitMB {
		return min(totalMB, minMemoryLimitMB)
	}
	return limit
}

// -----------------------------------------------------------------------------

// ApplyMemoryLimit sets the runtime soft memory limit unless GOMEMLIMIT is set.
// Every session holds full-dataset renders, so the GC should react before the
// host does.
func ApplyMemoryLimit(log *logger.Logger) {
	if os.Getenv("GOMEMLIMIT") != "" {
		log.Info("Memory limit taken from GOMEMLIMIT")
		return
	}

	limitMB := RecommendedMemoryLimitMB()
	if limitMB == 0 {
		log.Warning("Could not determine system memory; runtime memory limit left unset")
		return
	}

	debug.SetMemoryLimit(int64(limitMB) << 20)
	log.Info("Runtime memory limit set to %dMB", limitMB)
}
