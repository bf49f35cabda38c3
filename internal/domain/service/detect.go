package service

import (
	"RallyScan/internal/domain/models"
)

// RallyDetector detects rally events on a complete candle series for one
// (symbol, timeframe).
type RallyDetector interface {
	DetectOracle(symbol, tf string, candles []models.Candle) []models.RallyEvent
	DetectRefined(symbol, tf string, candles []models.Candle) []models.RallyEvent
	DetectSequential(symbol, tf string, candles []models.Candle) []models.RallyEvent
}
