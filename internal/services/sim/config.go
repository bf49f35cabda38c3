package sim

import "fmt"

// Config is the immutable parameter object for one simulation run. Exit and
// sizing parameters usually come from an external strategy card; Validate
// must pass before the config reaches the simulator.
type Config struct {
	Symbol    string
	Timeframe string

	// Entry filters applied before simulation.
	MinGainPct     float64
	AllowedBuckets []string
	LinkedOnly     bool // only events that carry a parent link

	// Trade management.
	TPPct           float64 // take profit, fraction (0.05 = 5%)
	SLPct           float64 // stop loss, fraction
	RiskPerTradePct float64 // fraction of current equity risked per trade
	MaxHorizonBars  int     // forced timeout after this many bars

	InitialEquity float64
}

// DefaultConfig returns the standard simulation parameters for a symbol.
func DefaultConfig(symbol, timeframe string) Config {
	return Config{
		Symbol:          symbol,
		Timeframe:       timeframe,
		TPPct:           0.05,
		SLPct:           0.02,
		RiskPerTradePct: 0.01,
		MaxHorizonBars:  48,
		InitialEquity:   10000,
	}
}

// Validate enforces the config invariants.
func (c Config) Validate() error {
	if c.TPPct <= 0 {
		return fmt.Errorf("tp_pct must be > 0, got %v", c.TPPct)
	}
	if c.SLPct <= 0 {
		return fmt.Errorf("sl_pct must be > 0, got %v", c.SLPct)
	}
	if c.MaxHorizonBars < 1 {
		return fmt.Errorf("max_horizon_bars must be >= 1, got %d", c.MaxHorizonBars)
	}
	if c.RiskPerTradePct <= 0 || c.RiskPerTradePct > 1 {
		return fmt.Errorf("risk_per_trade_pct must be in (0, 1], got %v", c.RiskPerTradePct)
	}
	if c.InitialEquity <= 0 {
		return fmt.Errorf("initial_equity must be > 0, got %v", c.InitialEquity)
	}
	return nil
}
