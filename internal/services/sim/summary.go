package sim

import (
	"gonum.org/v1/gonum/stat"

	"RallyScan/internal/domain/models"
)

// Summarize reduces a trade log and its equity curve to headline metrics.
// An empty trade log yields zero metrics with FinalEquity taken from the
// curve (the initial equity when the curve has only its starting sample).
func Summarize(trades []models.Trade, equity []models.EquityPoint) models.SimSummary {
	var s models.SimSummary
	if len(equity) > 0 {
		s.FinalEquity = equity[len(equity)-1].Equity
	}
	if len(trades) == 0 {
		return s
	}

	wins := make([]float64, 0, len(trades))
	losses := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.PnL > 0 {
			wins = append(wins, t.GrossReturnPct)
		} else {
			losses = append(losses, t.GrossReturnPct)
		}
	}

	s.NumTrades = len(trades)
	s.WinRate = float64(len(wins)) / float64(len(trades))
	if len(wins) > 0 {
		s.AvgGainPct = stat.Mean(wins, nil)
	}
	if len(losses) > 0 {
		s.AvgLossPct = stat.Mean(losses, nil)
	}
	// expectancy per trade in gross-return terms; AvgLossPct is negative so
	// the loss leg subtracts
	s.Expectancy = s.WinRate*s.AvgGainPct + (1-s.WinRate)*s.AvgLossPct

	s.MaxDrawdownPct = maxDrawdown(equity)
	if len(equity) > 0 && equity[0].Equity > 0 {
		s.TotalPnLPct = (s.FinalEquity - equity[0].Equity) / equity[0].Equity
	}
	return s
}

// maxDrawdown returns the deepest decline from a running equity peak as a
// non-positive fraction.
func maxDrawdown(equity []models.EquityPoint) float64 {
	var worst float64
	var peak float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := p.Equity/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
