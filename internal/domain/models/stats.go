package models

// VolatilityStats is realized volatility over a window of closed bars.
type VolatilityStats struct {
	Symbol     string  `json:"symbol"`
	TF         string  `json:"tf"`
	Bars       int     `json:"bars"`
	MeanReturn float64 `json:"mean_return"`
	Volatility float64 `json:"volatility"` // per-bar stddev of log returns
	Annualized float64 `json:"annualized"`
}
