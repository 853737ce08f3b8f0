package models

import "time"

// Candle represents an OHLCV bar for a fixed consolidation period.
// Bucket is the inclusive period start; the bar covers [Bucket, Bucket+Period).
type Candle struct {
	Symbol    string
	Bucket    time.Time
	Period    time.Duration
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	TickCount int
}

// Merge folds a later candle of the same symbol into c. Keeps c.Open, takes
// other.Close, widens High/Low and sums volume. The caller is responsible for
// bucket alignment.
func (c *Candle) Merge(other *Candle) {
	if other.High > c.High {
		c.High = other.High
	}
	if other.Low < c.Low {
		c.Low = other.Low
	}
	c.Close = other.Close
	c.Volume += other.Volume
	c.TickCount += other.TickCount
}
