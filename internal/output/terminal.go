package output

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/wehmoen/ronin-wally/internal/stats"
)

// Colors for status indicators
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// DisableColors turns off color output (for non-TTY or JSON mode)
func DisableColors() {
	color.NoColor = true
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Helper formatting functions

func formatStatus(status stats.Status) string {
	switch status {
	case stats.StatusUp:
		return green("✓ UP")
	case stats.StatusSlow:
		return yellow("⚠ SLOW")
	case stats.StatusDegraded:
		return yellow("⚠ DEGRADED")
	case stats.StatusDown:
		return red("✗ DOWN")
	default:
		return "?"
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatSuccessRate(rate float64) string {
	str := fmt.Sprintf("%.1f%%", rate)
	if rate >= 99.0 {
		return green(str)
	}
	if rate >= 90.0 {
		return yellow(str)
	}
	return red(str)
}

func formatErrorCount(count int) string {
	if count == 0 {
		return green("0")
	}
	return red(fmt.Sprintf("%d", count))
}

func formatRetryCount(count int) string {
	if count == 0 {
		return green("0")
	}
	return yellow(fmt.Sprintf("%d", count))
}

func truncateHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-4:]
}
