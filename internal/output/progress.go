package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress reports collection progress. On a terminal it keeps a single
// status line repainted in place; elsewhere it prints one line per finished
// transaction so piped logs stay readable.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	started time.Time
	width   int // widest line painted so far, repaints pad to it
}

func NewProgress(w io.Writer, tty bool) *Progress {
	return &Progress{w: w, tty: tty, started: time.Now()}
}

// Preamble prints the list totals before enrichment starts.
func (p *Progress) Preamble(sent, received, unique int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "Sent Transactions: %d\n", sent)
	fmt.Fprintf(p.w, "Received Transactions: %d\n", received)
	fmt.Fprintf(p.w, "Processing: %d valid transactions\n", unique)
}

// Update reports one finished hash. Safe for concurrent use.
func (p *Progress) Update(done, total int, hash string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.tty {
		fmt.Fprintf(p.w, "Completed: %s\n", hash)
		return
	}

	elapsed := time.Since(p.started)
	line := fmt.Sprintf("[%d/%d] %3.0f%% | %s | eta %s | %s",
		done, total,
		percent(done, total),
		formatDuration(elapsed),
		formatDuration(estimateRemaining(elapsed, done, total)),
		truncateHash(hash))

	if pad := p.width - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	} else {
		p.width = len(line)
	}
	fmt.Fprintf(p.w, "\r%s", line)
}

// Finish terminates the in-place status line so following output starts on
// a fresh line. A no-op when nothing was painted.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty && p.width > 0 {
		fmt.Fprintln(p.w)
	}
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}

func estimateRemaining(elapsed time.Duration, done, total int) time.Duration {
	if done == 0 || done >= total {
		return 0
	}
	return elapsed / time.Duration(done) * time.Duration(total-done)
}
