package models

import "time"

// Trade is a single executed tick as received from the feed.
type Trade struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Time returns the tick timestamp as time.Time.
func (t *Trade) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}
