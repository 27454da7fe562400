package common

import (
	"fmt"
	"time"
)

// LoggingEnabled controls whether Logf produces output. The library stays
// quiet unless a caller (the CLI, a test) flips it on.
var LoggingEnabled = false

// Logf prints a formatted message if logging is enabled.
func Logf(format string, args ...interface{}) {
	if LoggingEnabled {
		fmt.Printf(format, args...)
	}
}

// LogDuration prints a message with the elapsed time since start.
// The duration is wrapped in parens and right-padded so messages align.
func LogDuration(start time.Time, format string, args ...interface{}) {
	elapsed := time.Since(start)
	msg := fmt.Sprintf(format, args...)
	durStr := fmt.Sprintf("(%s)", formatDuration(elapsed))
	Logf("%-10s%s\n", durStr, msg)
}

// formatDuration renders a duration with 2 decimal places in the most
// readable unit: "5.00 us", "1.23 ms", "2.50 s".
func formatDuration(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)

	switch {
	case ms >= 1000:
		return fmt.Sprintf("%.2f s", ms/1000)
	case ms < 0.01:
		return fmt.Sprintf("%.2f us", ms*1000)
	default:
		return fmt.Sprintf("%.2f ms", ms)
	}
}
