package sim

import (
	"RallyScan/internal/domain/models"
)

// FilterEvents applies the config's entry filters: minimum labeled gain,
// bucket allow-list, and parent-link requirement. An empty allow-list admits
// every bucket.
func FilterEvents(events []models.RallyEvent, cfg Config) []models.RallyEvent {
	out := make([]models.RallyEvent, 0, len(events))
	for _, e := range events {
		if cfg.MinGainPct > 0 && e.FutureMaxGainPct < cfg.MinGainPct {
			continue
		}
		if cfg.LinkedOnly && !e.HasParent() {
			continue
		}
		if len(cfg.AllowedBuckets) > 0 && !bucketAllowed(e.RallyBucket, cfg.AllowedBuckets) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func bucketAllowed(bucket string, allowed []string) bool {
	for _, b := range allowed {
		if b == bucket {
			return true
		}
	}
	return false
}

// Simulate replays the events through TP/SL/timeout exit rules over the bar
// series, compounding equity across trades. Events must be time-ordered and
// bars ascending by Bucket; a different event order produces a different
// equity path.
//
// Per event: entry at the close of the event bar (events whose timestamp is
// absent from the series are skipped, no interpolation); then a walk over
// the next MaxHorizonBars bars, checking the stop-loss before the take-profit
// within each bar. Intrabar ordering of the high/low touches is unknown, so
// the adverse outcome is assumed first. No level touched within the horizon
// exits at the close of the window's last bar.
//
// Sizing risks RiskPerTradePct of current equity: position = risk/SLPct,
// capped at equity (no leverage). The equity curve gets one sample at start
// and one after every closed trade; samples are appended in trade order, so
// when event horizons overlap a later entry can close before an earlier one
// and the curve timestamps are not strictly ascending.
func Simulate(events []models.RallyEvent, bars []models.Candle, cfg Config) ([]models.Trade, []models.EquityPoint) {
	if len(bars) == 0 {
		// no price data means no trades, but the account still exists
		return nil, []models.EquityPoint{{Equity: cfg.InitialEquity}}
	}

	index := make(map[int64]int, len(bars))
	for i := range bars {
		index[bars[i].Bucket.Unix()] = i
	}

	equity := cfg.InitialEquity
	curve := []models.EquityPoint{{Timestamp: bars[0].Bucket, Equity: equity}}
	trades := make([]models.Trade, 0, len(events))

	for _, event := range events {
		entryIdx, ok := index[event.EventTime.Unix()]
		if !ok {
			continue // event outside the price series; drop it, not the batch
		}
		entryPrice := bars[entryIdx].Close
		if entryPrice <= 0 {
			continue
		}

		tpPrice := entryPrice * (1 + cfg.TPPct)
		slPrice := entryPrice * (1 - cfg.SLPct)

		end := entryIdx + cfg.MaxHorizonBars
		if end > len(bars)-1 {
			end = len(bars) - 1
		}

		if end == entryIdx {
			// entry on the final bar: no horizon to walk, so the event is
			// unresolvable and skipped like one outside the series
			continue
		}

		exitReason := models.ExitTimeout
		exitIdx := end
		exitPrice := bars[end].Close

		for j := entryIdx + 1; j <= end; j++ {
			// SL resolves before TP inside the same bar
			if bars[j].Low <= slPrice {
				exitReason = models.ExitSL
				exitPrice = slPrice
				exitIdx = j
				break
			}
			if bars[j].High >= tpPrice {
				exitReason = models.ExitTP
				exitPrice = tpPrice
				exitIdx = j
				break
			}
		}

		grossReturn := (exitPrice - entryPrice) / entryPrice

		riskAmount := equity * cfg.RiskPerTradePct
		positionSize := riskAmount / cfg.SLPct
		if positionSize > equity {
			positionSize = equity
		}
		pnl := positionSize * grossReturn
		equity += pnl

		trades = append(trades, models.Trade{
			Symbol:         event.Symbol,
			EntryTime:      event.EventTime,
			ExitTime:       bars[exitIdx].Bucket,
			EntryPrice:     entryPrice,
			ExitPrice:      exitPrice,
			ExitReason:     exitReason,
			GrossReturnPct: grossReturn,
			PnL:            pnl,
			EquityAfter:    equity,
			RallyBucket:    event.RallyBucket,
		})
		curve = append(curve, models.EquityPoint{Timestamp: bars[exitIdx].Bucket, Equity: equity})
	}
	return trades, curve
}
