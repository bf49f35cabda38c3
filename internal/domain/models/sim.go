package models

import "time"

// ExitReason is the condition that closed a simulated trade.
type ExitReason string

const (
	ExitTP      ExitReason = "TP"
	ExitSL      ExitReason = "SL"
	ExitTimeout ExitReason = "TIMEOUT"
)

// Trade is one simulated position opened at a rally event and closed by
// TP, SL, or horizon timeout. Created once by the simulator, never mutated.
type Trade struct {
	Symbol         string
	EntryTime      time.Time
	ExitTime       time.Time
	EntryPrice     float64
	ExitPrice      float64
	ExitReason     ExitReason
	GrossReturnPct float64
	PnL            float64
	EquityAfter    float64
	RallyBucket    string
}

// EquityPoint is one sample of the running equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// SimSummary reduces a trade log and equity curve to headline metrics.
// MaxDrawdownPct is non-positive (0 = equity never declined from a peak).
type SimSummary struct {
	NumTrades      int
	WinRate        float64
	AvgGainPct     float64
	AvgLossPct     float64
	Expectancy     float64
	MaxDrawdownPct float64
	FinalEquity    float64
	TotalPnLPct    float64
}
