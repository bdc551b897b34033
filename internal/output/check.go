package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wehmoen/ronin-wally/internal/stats"
)

// CheckReport holds the result of an API health probe.
type CheckReport struct {
	Host      string
	Timestamp time.Time
	Samples   int
	Status    stats.Status
	Endpoints []stats.EndpointStats
}

// Healthy reports whether the probed API can serve a collection run.
func (r *CheckReport) Healthy() bool {
	return r.Status != stats.StatusDown
}

// RenderCheckTerminal prints the health report for humans.
func RenderCheckTerminal(w io.Writer, report *CheckReport) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", bold("Host:"), report.Host)
	fmt.Fprintf(w, "%s %d per endpoint\n", bold("Samples:"), report.Samples)
	fmt.Fprintf(w, "%s %s\n", bold("Status:"), formatStatus(report.Status))
	RenderEndpointStats(w, report.Endpoints)
}

// jsonCheckReport is the machine-readable shape for --json mode.
type jsonCheckReport struct {
	Host      string              `json:"host"`
	Timestamp time.Time           `json:"timestamp"`
	Samples   int                 `json:"samples"`
	Status    string              `json:"status"`
	Healthy   bool                `json:"healthy"`
	Endpoints []jsonEndpointStats `json:"endpoints"`
}

type jsonEndpointStats struct {
	Endpoint    string      `json:"endpoint"`
	Calls       int         `json:"calls"`
	Retries     int         `json:"retries"`
	Failures    int         `json:"failures"`
	SuccessRate float64     `json:"success_rate"`
	Status      string      `json:"status"`
	LatencyMs   jsonLatency `json:"latency_ms"`
	Errors      jsonErrors  `json:"errors"`
}

type jsonLatency struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type jsonErrors struct {
	Timeout     int `json:"timeout"`
	RateLimit   int `json:"rate_limit"`
	ServerError int `json:"server_error"`
	ParseError  int `json:"parse_error"`
	Other       int `json:"other"`
}

// RenderCheckJSON outputs the health report as indented JSON.
func RenderCheckJSON(w io.Writer, report *CheckReport) error {
	jr := jsonCheckReport{
		Host:      report.Host,
		Timestamp: report.Timestamp,
		Samples:   report.Samples,
		Status:    string(report.Status),
		Healthy:   report.Healthy(),
		Endpoints: make([]jsonEndpointStats, 0, len(report.Endpoints)),
	}

	for _, e := range report.Endpoints {
		jr.Endpoints = append(jr.Endpoints, jsonEndpointStats{
			Endpoint:    e.Endpoint,
			Calls:       e.Calls,
			Retries:     e.Retries,
			Failures:    e.Failures,
			SuccessRate: e.SuccessRate(),
			Status:      string(e.Status()),
			LatencyMs: jsonLatency{
				P50: float64(e.Latency.P50.Milliseconds()),
				P95: float64(e.Latency.P95.Milliseconds()),
				P99: float64(e.Latency.P99.Milliseconds()),
				Max: float64(e.Latency.Max.Milliseconds()),
			},
			Errors: jsonErrors{
				Timeout:     e.Timeouts,
				RateLimit:   e.RateLimits,
				ServerError: e.ServerErrors,
				ParseError:  e.ParseErrors,
				Other:       e.OtherErrors,
			},
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jr)
}
