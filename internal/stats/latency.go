package stats

import (
	"math"
	"sort"
	"time"
)

// TailLatency holds p50, p95, p99, and max latency values.
type TailLatency struct {
	P50, P95, P99, Max time.Duration
}

// CalculateTailLatency computes tail latency percentiles from samples using
// the nearest-rank method. With small sample sizes P95 and P99 equal Max.
func CalculateTailLatency(latencies []time.Duration) TailLatency {
	if len(latencies) == 0 {
		return TailLatency{}
	}

	// Copy before sorting to avoid mutating the caller's slice.
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return TailLatency{
		P50: Percentile(sorted, 0.50),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// Percentile returns the value at the given percentile (as a decimal, e.g.
// 0.95) from a pre-sorted slice. Nearest rank: index = ceil(n*p) - 1,
// clamped to [0, n-1].
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}

	return sorted[index]
}
