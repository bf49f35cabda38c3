package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	domrepo "RallyScan/internal/domain/repository"
	icache "RallyScan/internal/service/cache"
	"RallyScan/internal/service/metrics"
	"RallyScan/internal/service/ratelimit"
	"RallyScan/internal/usecase"
	applogger "RallyScan/pkg/logger"
	xutil "RallyScan/pkg/util"
)

// RalliesHandler serves the read endpoints over plain net/http with a
// response cache and per-client rate limiting. The Echo handler covers the
// full API; this one exists for embedding behind custom muxes.
type RalliesHandler struct {
	events  domrepo.EventStore
	candles *usecase.CandlesUseCase
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
	l       *applogger.Logger
}

func NewRalliesHandler(events domrepo.EventStore, candles *usecase.CandlesUseCase) *RalliesHandler {
	metrics.Register()
	return &RalliesHandler{events: events, candles: candles, rl: ratelimit.New()}
}

func (h *RalliesHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *RalliesHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *RalliesHandler) Rallies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "rallies"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("rallies missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		linked := xutil.ParseBoolDefault(r.URL.Query().Get("linked"), false)
		limit := xutil.ParseIntDefault(r.URL.Query().Get("limit"), 500)
		if !h.rl.Allow(r.RemoteAddr+":rallies", 5, 2) {
			if h.l != nil {
				h.l.Warn("rallies rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "rallies:" + symbol + ":" + string(tf) + ":" + strconv.FormatBool(linked)
		if h.serveCached(r.Context(), w, endpoint, cacheKey) {
			return
		}
		events, err := h.events.QueryEvents(r.Context(), symbol, tf, linked, limit)
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("rallies query error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(r.Context(), w, endpoint, cacheKey, 30*time.Second, map[string]interface{}{
			"symbol": symbol,
			"tf":     string(tf),
			"count":  len(events),
			"events": events,
		})
	}
}

func (h *RalliesHandler) Candles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "candles"
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("candles missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		limit := xutil.ParseIntDefault(r.URL.Query().Get("limit"), 10000)
		if !h.rl.Allow(r.RemoteAddr+":candles", 5, 2) {
			if h.l != nil {
				h.l.Warn("candles rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		res, err := h.candles.GetCandles(r.Context(), usecase.GetCandlesParams{
			Symbol:    symbol,
			From:      xutil.ParseTimeDefault(r.URL.Query().Get("from"), time.Now().UTC().Add(-31*24*time.Hour)),
			To:        xutil.ParseTimeDefault(r.URL.Query().Get("to"), time.Now().UTC()),
			Timeframe: tf,
			Limit:     limit,
		})
		if err != nil {
			metrics.APIErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("candles usecase error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(r.Context(), w, endpoint, "", 0, res)
	}
}

func (h *RalliesHandler) serveCached(ctx context.Context, w http.ResponseWriter, endpoint, key string) bool {
	if h.cache == nil {
		return false
	}
	b, ok, err := h.cache.GetBytes(ctx, key)
	if err != nil {
		if h.l != nil {
			h.l.Warn(endpoint+" cache_get_error", applogger.Error(err))
		}
		return false
	}
	if !ok {
		if h.l != nil {
			h.l.Debug(endpoint+" cache_miss", applogger.String("key", key))
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	if h.l != nil {
		h.l.Debug(endpoint+" cache_hit", applogger.String("key", key))
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
	return true
}

func (h *RalliesHandler) writeJSON(ctx context.Context, w http.ResponseWriter, endpoint, cacheKey string, ttl time.Duration, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		if h.l != nil {
			h.l.Error(endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil && cacheKey != "" {
		if err := h.cache.SetBytes(ctx, cacheKey, b, ttl); err != nil && h.l != nil {
			h.l.Warn(endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn(endpoint+" write_error", applogger.Error(err))
	}
}

