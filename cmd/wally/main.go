package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wehmoen/ronin-wally/internal/archive"
	"github.com/wehmoen/ronin-wally/internal/checkpoint"
	"github.com/wehmoen/ronin-wally/internal/collector"
	"github.com/wehmoen/ronin-wally/internal/config"
	"github.com/wehmoen/ronin-wally/internal/env"
	"github.com/wehmoen/ronin-wally/internal/output"
	"github.com/wehmoen/ronin-wally/internal/ronin"
	"github.com/wehmoen/ronin-wally/internal/stats"
)

const version = "1.0.0"
const userAgent = "wally/" + version

func main() {
	if err := env.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type collectOptions struct {
	address   string
	localhost bool
	cfgPath   string
	workers   int
	outDir    string
	resume    bool
	quiet     bool
	showStats bool
}

func rootCmd() *cobra.Command {
	var opts collectOptions

	cmd := &cobra.Command{
		Use:   "wally",
		Short: "Archive the full transaction history of a Ronin address",
		Long: `wally collects every transaction an address on the Ronin network ever
sent or received, enriches each one with its decoded method input and
receipt output, and writes the result to <address>.json sorted by block
number.

Addresses may use the ronin: prefix or the plain 0x hex form.

Examples:
  wally --address ronin:b00f9ad1dae1e78e05b823ef27c162a610e0a706
  wally --resume --workers 4
  wally check --samples 10`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "Config file path (default "+config.DefaultFile+")")

	cmd.Flags().StringVar(&opts.address, "address", "", "Ronin address to collect (prompts when omitted)")
	cmd.Flags().BoolVar(&opts.localhost, "localhost", false, "Use a local API instance at "+ronin.LocalBaseURL)
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent enrichment workers (0 = config value)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Directory for the archive file (default from config)")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Checkpoint progress and restore any previous interrupted run")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Suppress progress output")
	cmd.Flags().BoolVar(&opts.showStats, "stats", false, "Print per-endpoint call statistics after the run")

	cmd.AddCommand(checkCmd())

	return cmd
}

func runCollect(opts collectOptions) error {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var address string
	if opts.address != "" {
		if address, _, err = ronin.ParseAddress(opts.address); err != nil {
			return err
		}
	} else {
		if address, err = promptAddress(os.Stdin, os.Stdout); err != nil {
			return err
		}
	}

	recorder := stats.NewCollector()
	clientCfg := cfg.ClientConfig()
	if opts.localhost {
		clientCfg.BaseURL = ronin.LocalBaseURL
	}
	clientCfg.UserAgent = userAgent
	clientCfg.Recorder = recorder
	client := ronin.NewClient(clientCfg)

	workers := cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	outDir := cfg.OutDir
	if opts.outDir != "" {
		outDir = opts.outDir
	}

	var store *checkpoint.Store
	if opts.resume {
		store, err = checkpoint.Open(cfg.Checkpoint.Path)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint: %w", err)
		}
		defer store.Close()
	}

	collectOpts := collector.Options{Workers: workers}
	if store != nil {
		collectOpts.Checkpoint = store
	}

	var progress *output.Progress
	if !opts.quiet {
		progress = output.NewProgress(os.Stdout, output.IsTerminal())
		collectOpts.OnListed = progress.Preamble
		collectOpts.OnProgress = progress.Update
	}

	ctx, cancel := signalContext()
	defer cancel()

	started := time.Now()
	result, err := collector.New(client, collectOpts).Run(ctx, address)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && store != nil {
			fmt.Fprintln(os.Stderr, "Interrupted; progress saved. Re-run with --resume to continue.")
		}
		return err
	}

	path, err := archive.Write(outDir, address, result.Transactions)
	if err != nil {
		return err
	}

	if store != nil {
		if err := store.Clear(ctx, address); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	if !opts.quiet {
		output.RenderRunSummary(os.Stdout, result, path, time.Since(started))
	}
	if opts.showStats {
		output.RenderEndpointStats(os.Stdout, recorder.Calculate())
	}

	return nil
}

// promptAddress asks on stdin until the input parses as a Ronin address.
// The ronin: prefix and the plain 0x hex form are both accepted.
func promptAddress(in io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Please enter your Ronin address: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.New("no address entered")
		}

		address, _, err := ronin.ParseAddress(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintln(out, "Failed to parse your address!")
			continue
		}
		return address, nil
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM, so
// in-flight requests abort and the run stops between transactions.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "\nReceived signal: %v\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
