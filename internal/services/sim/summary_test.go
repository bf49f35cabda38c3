package sim

import (
	"testing"
	"time"

	"RallyScan/internal/domain/models"
)

func TestSummarizeWinLossSplit(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{Symbol: "BTCUSDT", EntryTime: ts, PnL: 10, GrossReturnPct: 0.5},
		{Symbol: "BTCUSDT", EntryTime: ts.Add(time.Hour), PnL: -5, GrossReturnPct: -0.25},
	}
	curve := []models.EquityPoint{
		{Timestamp: ts, Equity: 1000},
		{Timestamp: ts.Add(time.Hour), Equity: 1200},
		{Timestamp: ts.Add(2 * time.Hour), Equity: 900},
	}

	s := Summarize(trades, curve)
	if s.NumTrades != 2 {
		t.Fatalf("expected 2 trades, got %d", s.NumTrades)
	}
	if s.WinRate != 0.5 {
		t.Fatalf("expected win rate 0.5, got %v", s.WinRate)
	}
	if s.AvgGainPct != 0.5 || s.AvgLossPct != -0.25 {
		t.Fatalf("unexpected averages: gain %v loss %v", s.AvgGainPct, s.AvgLossPct)
	}
	// 0.5*0.5 + 0.5*(-0.25)
	if s.Expectancy != 0.125 {
		t.Fatalf("expected expectancy 0.125, got %v", s.Expectancy)
	}
	// 900 against the 1200 peak
	if s.MaxDrawdownPct != -0.25 {
		t.Fatalf("expected drawdown -0.25, got %v", s.MaxDrawdownPct)
	}
	if s.FinalEquity != 900 || s.TotalPnLPct != -0.1 {
		t.Fatalf("unexpected final equity %v pnl %v", s.FinalEquity, s.TotalPnLPct)
	}
}

func TestSummarizeNoTrades(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	curve := []models.EquityPoint{{Timestamp: ts, Equity: 1000}}

	s := Summarize(nil, curve)
	if s.NumTrades != 0 || s.WinRate != 0 || s.Expectancy != 0 {
		t.Fatalf("empty log must produce zero metrics: %+v", s)
	}
	if s.FinalEquity != 1000 {
		t.Fatalf("final equity must come from the curve, got %v", s.FinalEquity)
	}
}

func TestSummarizeFlatTradeCountsAsLoss(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{{Symbol: "BTCUSDT", EntryTime: ts, PnL: 0, GrossReturnPct: 0}}
	curve := []models.EquityPoint{
		{Timestamp: ts, Equity: 1000},
		{Timestamp: ts.Add(time.Hour), Equity: 1000},
	}

	s := Summarize(trades, curve)
	if s.WinRate != 0 {
		t.Fatalf("a zero-pnl trade is not a win, got win rate %v", s.WinRate)
	}
	if s.MaxDrawdownPct != 0 {
		t.Fatalf("flat equity has no drawdown, got %v", s.MaxDrawdownPct)
	}
}
