package repository

import (
	"context"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	pkgcache "RallyScan/pkg/cache"
)

// CachedFeatureStore wraps a FeatureStore with a short-TTL cache. Scan
// sweeps and simulate calls for the same symbol tend to arrive in bursts,
// so even a small TTL suppresses most repeat ClickHouse reads.
type CachedFeatureStore struct {
	inner domrepo.FeatureStore
	cache pkgcache.Service
	ttl   time.Duration
}

func NewCachedFeatureStore(inner domrepo.FeatureStore, cache pkgcache.Service, ttl time.Duration) *CachedFeatureStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedFeatureStore{inner: inner, cache: cache, ttl: ttl}
}

func (s *CachedFeatureStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	key := pkgcache.GenerateKeyWithParams("candles:"+symbol, tf, from.Unix(), to.Unix())
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	candles, err := s.inner.GetCandles(ctx, symbol, from, to, tf)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, candles, s.ttl)
	return candles, nil
}

func (s *CachedFeatureStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	key := pkgcache.GenerateKeyWithParams("candles:"+symbol, "latest", tf, n)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	candles, err := s.inner.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, candles, s.ttl)
	return candles, nil
}

// InvalidateSymbol drops every cached series for the symbol. Called after a
// scan run so the HTTP surface reads fresh bars instead of waiting out the
// TTL.
func (s *CachedFeatureStore) InvalidateSymbol(ctx context.Context, symbol string) {
	_ = s.cache.DeleteByPattern(ctx, pkgcache.BuildPattern("candles:"+symbol+":"))
}

func (s *CachedFeatureStore) lookup(ctx context.Context, key string) ([]models.Candle, bool) {
	var candles []models.Candle
	if err := s.cache.Get(ctx, key, &candles); err != nil {
		return nil, false
	}
	return candles, true
}

var _ domrepo.FeatureStore = (*CachedFeatureStore)(nil)
