package models

import "time"

// Candle represents one OHLCV bar for a (symbol, timeframe) series.
// The indicator fields (ATR, VolRel, RSI) are produced by an external
// feature-engineering stage; a zero or negative value means the feature
// store had no value for that bar, and detection passes that depend on
// the field are skipped rather than failed.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	ATR    float64
	VolRel float64 // volume relative to its rolling mean (1.0 = normal)
	RSI    float64
	OrgID  string
}

// ExtremaFlags marks a bar as a local dip and/or peak for a given window
// radius. Derived, never persisted; recomputed whenever the radius changes.
type ExtremaFlags struct {
	IsDip  bool
	IsPeak bool
}
