package models

// HTTP request models. Binding, defaults and validation are handled by
// pkg/http.ReadAndValidateRequest.

type CandlesRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from"`
	To     string `query:"to"`
	TF     string `query:"tf" default:"1m"`
	Limit  int    `query:"limit" default:"1000" validate:"gte=0,lte=50000"`
}

type LatestCandlesRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	TF     string `query:"tf" default:"1m"`
	N      int    `query:"n" default:"1" validate:"gte=1,lte=1000"`
}

type SessionRequest struct {
	Venue string `query:"venue" default:"forex" validate:"oneof=forex crypto"`
	At    string `query:"at"`
}

type StatsRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	TF     string `query:"tf" default:"1m"`
	N      int    `query:"n" default:"600" validate:"gte=2,lte=10000"`
}

type BarStreamRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	TF     string `query:"tf" default:"1m"`
}
