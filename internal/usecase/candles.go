package usecase

import (
	"context"
	"fmt"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
)

const (
	candlesDefaultLimit = 10000
	candlesMaxLimit     = 50000
)

// CandlesUseCase serves raw candle windows to the HTTP layer, mainly so
// dashboards can chart detected rallies against the price series they
// were found on.
type CandlesUseCase struct {
	store domrepo.FeatureStore
}

func NewCandlesUseCase(store domrepo.FeatureStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

func (p *GetCandlesParams) validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = candlesDefaultLimit
	}
	if p.Limit > candlesMaxLimit {
		p.Limit = candlesMaxLimit
	}
	return nil
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}
