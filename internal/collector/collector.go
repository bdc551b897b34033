// Package collector orchestrates the collection pipeline for one address:
// list sent and received hashes, dedup, enrich each transaction, sort.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wehmoen/ronin-wally/internal/archive"
	"github.com/wehmoen/ronin-wally/internal/checkpoint"
	"github.com/wehmoen/ronin-wally/internal/ronin"
)

// API is the slice of the transaction index surface the pipeline needs.
// *ronin.Client satisfies it.
type API interface {
	ListSentTransactions(ctx context.Context, address string) ([]string, error)
	ListReceivedTransactions(ctx context.Context, address string) ([]string, error)
	GetTransaction(ctx context.Context, hash string) (*ronin.TransactionSummary, error)
	DecodeTransaction(ctx context.Context, hash string) (json.RawMessage, error)
	DecodeTransactionReceipt(ctx context.Context, hash string) (json.RawMessage, error)
}

// Checkpoint restores and saves per-hash progress. *checkpoint.Store
// satisfies it; a nil Checkpoint disables resume entirely.
type Checkpoint interface {
	Completed(ctx context.Context, address string) (map[string]checkpoint.Entry, error)
	MarkEnriched(ctx context.Context, address string, tx archive.EnrichedTransaction) error
	MarkSkipped(ctx context.Context, address, hash string) error
}

// Options tune a Collector. The zero value runs sequentially with no
// checkpointing and no callbacks.
type Options struct {
	// Workers caps concurrent enrichment. 0 or 1 processes hashes one at a
	// time in merged order, which also keeps the per-hash call sequence
	// strictly non-overlapping across hashes.
	Workers    int
	Checkpoint Checkpoint

	// OnListed fires once after both list calls, before any enrichment.
	OnListed func(sent, received, unique int)
	// OnProgress fires once per finished hash, filtered and restored
	// hashes included.
	OnProgress func(done, total int, hash string)
}

// Result is the outcome of a run, ready to persist.
type Result struct {
	Address      string // normalized form, also the archive filename stem
	Transactions []archive.EnrichedTransaction

	Sent     int
	Received int
	Unique   int
	Skipped  int // self transfers excluded from the archive
	Restored int // hashes served from the checkpoint without network calls
}

type Collector struct {
	api        API
	workers    int
	checkpoint Checkpoint
	onListed   func(sent, received, unique int)
	onProgress func(done, total int, hash string)
}

func New(api API, opts Options) *Collector {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		api:        api,
		workers:    workers,
		checkpoint: opts.Checkpoint,
		onListed:   opts.OnListed,
		onProgress: opts.OnProgress,
	}
}

// Run collects every transaction for the given normalized address. Any
// failure aborts the whole run; the caller writes no file in that case.
func (c *Collector) Run(ctx context.Context, address string) (*Result, error) {
	sent, err := c.api.ListSentTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("listing sent transactions: %w", err)
	}
	received, err := c.api.ListReceivedTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("listing received transactions: %w", err)
	}

	hashes := dedup(sent, received)

	result := &Result{
		Address:  address,
		Sent:     len(sent),
		Received: len(received),
		Unique:   len(hashes),
	}
	if c.onListed != nil {
		c.onListed(len(sent), len(received), len(hashes))
	}

	var restored map[string]checkpoint.Entry
	if c.checkpoint != nil {
		restored, err = c.checkpoint.Completed(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("loading checkpoint: %w", err)
		}
	}

	transactions, err := c.enrichAll(ctx, address, hashes, restored, result)
	if err != nil {
		return nil, err
	}

	// Final order comes from this sort alone, never from completion order.
	// Stable, so equal block numbers keep their accumulation order.
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].BlockNumber < transactions[j].BlockNumber
	})

	result.Transactions = transactions
	return result, nil
}

// dedup merges the hash lists into one duplicate-free slice preserving
// first-seen order, sent before received.
func dedup(sent, received []string) []string {
	seen := make(map[string]struct{}, len(sent)+len(received))
	merged := make([]string, 0, len(sent)+len(received))
	for _, list := range [][]string{sent, received} {
		for _, hash := range list {
			if _, ok := seen[hash]; ok {
				continue
			}
			seen[hash] = struct{}{}
			merged = append(merged, hash)
		}
	}
	return merged
}

// enrichAll fans the per-hash work out over a bounded worker pool. Results
// land in hash order regardless of completion order; the first error cancels
// the remaining work.
func (c *Collector) enrichAll(
	ctx context.Context,
	address string,
	hashes []string,
	restored map[string]checkpoint.Entry,
	result *Result,
) ([]archive.EnrichedTransaction, error) {
	type slot struct {
		tx         *archive.EnrichedTransaction
		fromResume bool
	}
	slots := make([]slot, len(hashes))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, hash := range hashes {
		i, hash := i, hash
		g.Go(func() error {
			entry, fromResume := restored[hash]

			var tx *archive.EnrichedTransaction
			if fromResume {
				tx = entry.Record // nil when the hash was skipped last run
			} else {
				var err error
				tx, err = c.enrichOne(gctx, address, hash)
				if err != nil {
					return err
				}
			}

			mu.Lock()
			slots[i] = slot{tx: tx, fromResume: fromResume}
			done++
			d := done
			mu.Unlock()

			if c.onProgress != nil {
				c.onProgress(d, len(hashes), hash)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]archive.EnrichedTransaction, 0, len(hashes))
	for _, s := range slots {
		if s.fromResume {
			result.Restored++
		}
		if s.tx == nil {
			result.Skipped++
			continue
		}
		out = append(out, *s.tx)
	}
	return out, nil
}

// enrichOne runs the per-hash sequence: summary fetch, self-transfer check,
// method decode, receipt decode. The two decode calls happen strictly after
// the summary and strictly in that order.
func (c *Collector) enrichOne(ctx context.Context, address, hash string) (*archive.EnrichedTransaction, error) {
	summary, err := c.api.GetTransaction(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", hash, err)
	}

	if summary.IsSelfTransfer() {
		if c.checkpoint != nil {
			if err := c.checkpoint.MarkSkipped(ctx, address, hash); err != nil {
				return nil, fmt.Errorf("checkpointing %s: %w", hash, err)
			}
		}
		return nil, nil
	}

	input, err := c.api.DecodeTransaction(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("decoding method of %s: %w", hash, err)
	}
	output, err := c.api.DecodeTransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("decoding receipt of %s: %w", hash, err)
	}

	tx := &archive.EnrichedTransaction{
		From:        summary.From,
		To:          summary.To,
		Hash:        hash,
		BlockNumber: summary.BlockNumber,
		Input:       input,
		Output:      output,
	}

	if c.checkpoint != nil {
		if err := c.checkpoint.MarkEnriched(ctx, address, *tx); err != nil {
			return nil, fmt.Errorf("checkpointing %s: %w", hash, err)
		}
	}
	return tx, nil
}
