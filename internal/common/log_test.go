package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		// Microseconds (< 0.01 ms)
		{"5 microseconds", 5 * time.Microsecond, "5.00 us"},
		{"9.5 microseconds", 9500 * time.Nanosecond, "9.50 us"},

		// Milliseconds
		{"0.01 ms", 10 * time.Microsecond, "0.01 ms"},
		{"0.5 ms", 500 * time.Microsecond, "0.50 ms"},
		{"1.234 ms", 1234 * time.Microsecond, "1.23 ms"},
		{"50 ms", 50 * time.Millisecond, "50.00 ms"},
		{"999 ms", 999 * time.Millisecond, "999.00 ms"},

		// Seconds
		{"1.234 s", 1234 * time.Millisecond, "1.23 s"},
		{"123.4 s", 123400 * time.Millisecond, "123.40 s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatDuration(tt.duration)
			require.Equal(t, tt.expected, result, "duration %v", tt.duration)
		})
	}
}

func TestLogfRespectsFlag(t *testing.T) {
	orig := LoggingEnabled
	defer func() { LoggingEnabled = orig }()

	// Off by default; flipping the flag must not panic either way.
	LoggingEnabled = false
	Logf("suppressed %d\n", 1)
	LoggingEnabled = true
	Logf("")
}
