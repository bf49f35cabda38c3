package repository

import (
	"context"
	"time"

	"RallyScan/internal/domain/models"
)

// Timeframe represents candle resolution buckets used by the rally pipeline.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
)

// FeatureStore provides read-only access to candles/features for detection.
type FeatureStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}
