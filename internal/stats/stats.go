// Package stats aggregates API call results into per-endpoint statistics.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/wehmoen/ronin-wally/internal/ronin"
)

// Status represents the health state of the API.
type Status string

const (
	StatusUp       Status = "UP"
	StatusSlow     Status = "SLOW"
	StatusDegraded Status = "DEGRADED"
	StatusDown     Status = "DOWN"
)

// EndpointStats holds aggregated call statistics for a single endpoint.
type EndpointStats struct {
	Endpoint string
	Calls    int
	Retries  int
	Failures int

	// Error breakdown
	Timeouts     int
	RateLimits   int
	ServerErrors int
	ParseErrors  int
	OtherErrors  int

	Latency TailLatency
}

// SuccessRate returns the percentage of calls that eventually succeeded.
func (s EndpointStats) SuccessRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Calls-s.Failures) / float64(s.Calls) * 100
}

// Status classifies the endpoint's health from its samples.
func (s EndpointStats) Status() Status {
	return DetermineStatus(s.SuccessRate(), s.Latency.P95)
}

// Collector aggregates call results by endpoint. It implements
// ronin.Recorder and is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	results map[string][]ronin.CallResult
}

func NewCollector() *Collector {
	return &Collector{
		results: make(map[string][]ronin.CallResult),
	}
}

// Record stores a call result.
func (c *Collector) Record(result ronin.CallResult) {
	c.mu.Lock()
	c.results[result.Endpoint] = append(c.results[result.Endpoint], result)
	c.mu.Unlock()
}

// TotalCalls returns the number of results recorded across all endpoints.
func (c *Collector) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, samples := range c.results {
		total += len(samples)
	}
	return total
}

// Calculate computes statistics for every endpoint seen so far,
// sorted by endpoint name for stable output.
func (c *Collector) Calculate() []EndpointStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]EndpointStats, 0, len(c.results))
	for endpoint, samples := range c.results {
		out = append(out, calculateEndpointStats(endpoint, samples))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

func calculateEndpointStats(endpoint string, samples []ronin.CallResult) EndpointStats {
	s := EndpointStats{Endpoint: endpoint}

	var latencies []time.Duration
	for _, r := range samples {
		s.Calls++
		if r.Attempts > 1 {
			s.Retries += r.Attempts - 1
		}

		if r.Success {
			latencies = append(latencies, r.Latency)
			continue
		}

		s.Failures++
		switch r.ErrorType {
		case ronin.ErrorTypeTimeout:
			s.Timeouts++
		case ronin.ErrorTypeRateLimit:
			s.RateLimits++
		case ronin.ErrorTypeServerError:
			s.ServerErrors++
		case ronin.ErrorTypeParseError:
			s.ParseErrors++
		default:
			s.OtherErrors++
		}
	}

	s.Latency = CalculateTailLatency(latencies)
	return s
}

// DetermineStatus categorizes API health based on success rate and tail latency.
func DetermineStatus(successRate float64, p95Latency time.Duration) Status {
	const (
		downThreshold     = 50.0 // <50% success = DOWN
		degradedThreshold = 90.0 // <90% success = DEGRADED
		slowLatency       = 500 * time.Millisecond
	)

	if successRate < downThreshold {
		return StatusDown
	}
	if successRate < degradedThreshold {
		return StatusDegraded
	}
	if p95Latency > slowLatency {
		return StatusSlow
	}
	return StatusUp
}
