package models

// Requests for rally HTTP endpoints. Defined in domain for consistency and reuse.

type RalliesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	TF     string `query:"tf" json:"tf" default:"15m" validate:"oneof=15m 1h 4h"`
	Linked bool   `query:"linked" json:"linked"` // only events with a parent link
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	TF     string `query:"tf" json:"tf" default:"15m" validate:"oneof=15m 1h 4h"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

type ScanRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	N      int    `query:"n" json:"n" default:"3000" validate:"gte=100,lte=20000"`
}

type SimulateRequest struct {
	Symbol          string   `query:"symbol" json:"symbol" validate:"required,symbol"`
	TF              string   `query:"tf" json:"tf" default:"15m" validate:"oneof=15m 1h 4h"`
	TPPct           float64  `json:"tp_pct" default:"0.05" validate:"gt=0,lte=1"`
	SLPct           float64  `json:"sl_pct" default:"0.02" validate:"gt=0,lte=1"`
	MaxHorizonBars  int      `json:"max_horizon_bars" default:"48" validate:"gte=1,lte=2000"`
	RiskPerTradePct float64  `json:"risk_per_trade_pct" default:"0.01" validate:"gt=0,lte=1"`
	InitialEquity   float64  `json:"initial_equity" default:"10000" validate:"gt=0"`
	MinGainPct      float64  `json:"min_gain_pct" validate:"gte=0"`
	AllowedBuckets  []string `json:"allowed_buckets"`
	LinkedOnly      bool     `json:"linked_only"`
	N               int      `json:"n" default:"5000" validate:"gte=100,lte=50000"`
}
