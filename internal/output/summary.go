package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/wehmoen/ronin-wally/internal/collector"
	"github.com/wehmoen/ronin-wally/internal/stats"
)

// RenderRunSummary prints the wrap-up for one collection run.
func RenderRunSummary(w io.Writer, result *collector.Result, path string, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Collection Summary"))
	fmt.Fprintf(w, "  Address:    %s\n", cyan(result.Address))
	fmt.Fprintf(w, "  Sent:       %d\n", result.Sent)
	fmt.Fprintf(w, "  Received:   %d\n", result.Received)
	fmt.Fprintf(w, "  Unique:     %d\n", result.Unique)
	if result.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped:    %d self transfers\n", result.Skipped)
	}
	if result.Restored > 0 {
		fmt.Fprintf(w, "  Restored:   %d from checkpoint\n", result.Restored)
	}
	fmt.Fprintf(w, "  Archived:   %s\n", green(fmt.Sprintf("%d transactions", len(result.Transactions))))
	fmt.Fprintf(w, "  Elapsed:    %s\n", formatDuration(elapsed))
	fmt.Fprintf(w, "  Output:     %s\n", bold(path))
}

// RenderEndpointStats prints the per-endpoint call table, followed by an
// error breakdown when any endpoint failed.
func RenderEndpointStats(w io.Writer, endpoints []stats.EndpointStats) {
	if len(endpoints) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("API Calls"))

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Endpoint", "Calls", "Retries", "Failed", "p50", "p95", "p99", "Max", "Success")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, e := range endpoints {
		tbl.AddRow(
			e.Endpoint,
			e.Calls,
			formatRetryCount(e.Retries),
			formatErrorCount(e.Failures),
			formatDuration(e.Latency.P50),
			formatDuration(e.Latency.P95),
			formatDuration(e.Latency.P99),
			formatDuration(e.Latency.Max),
			formatSuccessRate(e.SuccessRate()),
		)
	}

	tbl.Print()

	if hasFailures(endpoints) {
		renderErrorBreakdown(w, endpoints)
	}
	fmt.Fprintln(w)
}

func hasFailures(endpoints []stats.EndpointStats) bool {
	for _, e := range endpoints {
		if e.Failures > 0 {
			return true
		}
	}
	return false
}

func renderErrorBreakdown(w io.Writer, endpoints []stats.EndpointStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Error Breakdown"))

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Endpoint", "Timeout", "429", "5xx", "Parse", "Other")
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, e := range endpoints {
		if e.Failures == 0 {
			continue
		}
		tbl.AddRow(
			e.Endpoint,
			formatErrorCount(e.Timeouts),
			formatErrorCount(e.RateLimits),
			formatErrorCount(e.ServerErrors),
			formatErrorCount(e.ParseErrors),
			formatErrorCount(e.OtherErrors),
		)
	}

	tbl.Print()
}
