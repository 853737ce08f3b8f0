package repository

import "time"

// Timeframe identifies a consolidation period.
type Timeframe string

const (
	TF1s Timeframe = "1s"
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1s, TF1m, TF5m:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the period covered by one bar of tf.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1s:
		return time.Second
	case TF5m:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// TimeframeFor maps a consolidation period back to its timeframe label.
func TimeframeFor(d time.Duration) (Timeframe, bool) {
	switch d {
	case time.Second:
		return TF1s, true
	case time.Minute:
		return TF1m, true
	case 5 * time.Minute:
		return TF5m, true
	default:
		return "", false
	}
}
