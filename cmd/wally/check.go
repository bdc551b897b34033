package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wehmoen/ronin-wally/internal/config"
	"github.com/wehmoen/ronin-wally/internal/output"
	"github.com/wehmoen/ronin-wally/internal/ronin"
	"github.com/wehmoen/ronin-wally/internal/stats"
)

// probeAddress is the zero address. The probe measures endpoint behavior
// only; the response content does not matter.
const probeAddress = "0x0000000000000000000000000000000000000000"

func checkCmd() *cobra.Command {
	var (
		samples   int
		jsonOut   bool
		localhost bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe API health before a long collection run",
		Long: `Probe the transaction index with a few list calls and report its health.
Exits non-zero when the API is DOWN.

Example:
  wally check --samples 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
			return runCheck(samples, jsonOut, localhost, cfgPath)
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 5, "Number of probe calls")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
	cmd.Flags().BoolVar(&localhost, "localhost", false, "Probe a local API instance at "+ronin.LocalBaseURL)

	return cmd
}

func runCheck(samples int, jsonOut, localhost bool, cfgPath string) error {
	if samples < 1 {
		return fmt.Errorf("samples must be >= 1")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	recorder := stats.NewCollector()
	clientCfg := cfg.ClientConfig()
	if localhost {
		clientCfg.BaseURL = ronin.LocalBaseURL
	}
	clientCfg.UserAgent = userAgent
	clientCfg.Recorder = recorder
	// Single attempt per probe; retries would mask instability.
	clientCfg.MaxRetries = -1
	client := ronin.NewClient(clientCfg)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(os.Stderr, "Probing %s with %d samples...\n", client.BaseURL(), samples)

	for i := 0; i < samples; i++ {
		if ctx.Err() != nil {
			break
		}
		_, _ = client.ListSentTransactions(ctx, probeAddress)
		if i < samples-1 {
			time.Sleep(200 * time.Millisecond)
		}
	}

	if recorder.TotalCalls() == 0 {
		return fmt.Errorf("no samples collected")
	}

	endpoints := recorder.Calculate()
	report := &output.CheckReport{
		Host:      client.BaseURL(),
		Timestamp: time.Now(),
		Samples:   samples,
		Status:    worstStatus(endpoints),
		Endpoints: endpoints,
	}

	if jsonOut {
		output.DisableColors()
		if err := output.RenderCheckJSON(os.Stdout, report); err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
	} else {
		output.RenderCheckTerminal(os.Stdout, report)
	}

	if !report.Healthy() {
		return fmt.Errorf("API is %s", report.Status)
	}
	return nil
}

func worstStatus(endpoints []stats.EndpointStats) stats.Status {
	worst := stats.StatusUp
	for _, e := range endpoints {
		if statusRank(e.Status()) > statusRank(worst) {
			worst = e.Status()
		}
	}
	return worst
}

func statusRank(s stats.Status) int {
	switch s {
	case stats.StatusSlow:
		return 1
	case stats.StatusDegraded:
		return 2
	case stats.StatusDown:
		return 3
	default:
		return 0
	}
}
