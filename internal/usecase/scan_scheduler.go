package usecase

import (
	"context"
	"time"

	drepo "RallyScan/internal/domain/repository"
	pkgcache "RallyScan/pkg/cache"
	applogger "RallyScan/pkg/logger"
	"RallyScan/pkg/queue"
)

// ScanJobType is the queue message type for per-symbol scan jobs.
const ScanJobType = "rally.scan"

// ScanJobPayload is the queue payload for one symbol scan.
type ScanJobPayload struct {
	Symbol string `json:"symbol"`
}

// ScanScheduler periodically fans the configured symbol list out as
// independent per-symbol jobs. Each job runs the full pipeline in a queue
// worker, which is the only concurrency in the system; the pipeline itself
// stays single-threaded per symbol.
type ScanScheduler struct {
	q        queue.QueueService
	symbols  []string
	interval time.Duration
	metrics  drepo.Metrics
	l        *applogger.Logger
	stop     chan struct{}
}

func NewScanScheduler(q queue.QueueService, symbols []string, interval time.Duration, metrics drepo.Metrics, l *applogger.Logger) *ScanScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ScanScheduler{q: q, symbols: symbols, interval: interval, metrics: metrics, l: l, stop: make(chan struct{})}
}

// Start launches the scheduling loop. The first sweep fires immediately.
func (s *ScanScheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueAll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.enqueueAll(ctx)
			}
		}
	}()
}

func (s *ScanScheduler) enqueueAll(ctx context.Context) {
	for _, symbol := range s.symbols {
		if err := s.q.PublishMessage(ctx, ScanJobType, ScanJobPayload{Symbol: symbol}); err != nil {
			s.metrics.RecordError("enqueue_scan")
			if s.l != nil {
				s.l.Error("enqueue scan job failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}
	}
	if s.l != nil {
		s.l.Info("scan sweep enqueued", applogger.Int("symbols", len(s.symbols)))
	}
}

func (s *ScanScheduler) Stop() { close(s.stop) }

// CandleCacheInvalidator drops cached candle reads for a symbol after a
// scan brings in fresh data.
type CandleCacheInvalidator interface {
	InvalidateSymbol(ctx context.Context, symbol string)
}

// ScanJob is the queue worker side: it runs the pipeline for the job's
// symbol and hands the filtered events to the processor. A per-symbol cache
// lock keeps a scheduled sweep and an on-demand request from scanning the
// same symbol at once.
type ScanJob struct {
	pipeline *ScanPipeline
	proc     *EventProcessor
	locks    pkgcache.Service
	inval    CandleCacheInvalidator
	l        *applogger.Logger
}

func NewScanJob(pipeline *ScanPipeline, proc *EventProcessor, locks pkgcache.Service, inval CandleCacheInvalidator, l *applogger.Logger) *ScanJob {
	return &ScanJob{pipeline: pipeline, proc: proc, locks: locks, inval: inval, l: l}
}

func (j *ScanJob) Name() string { return "rally_scan" }
func (j *ScanJob) Type() string { return ScanJobType }

// scanLockTTL caps how long a crashed worker can hold a symbol.
const scanLockTTL = 2 * time.Minute

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScanJobPayload](payload)
	if err != nil {
		return err
	}

	if j.locks != nil {
		lockKey := pkgcache.GenerateKey("scan.lock", p.Symbol)
		ok, err := j.locks.TryLock(ctx, lockKey, scanLockTTL)
		if err == nil && !ok {
			if j.l != nil {
				j.l.Debug("scan already in flight, skipping", applogger.String("symbol", p.Symbol))
			}
			return nil
		}
		if err == nil {
			defer func() { _ = j.locks.Unlock(ctx, lockKey) }()
		}
	}

	res, err := j.pipeline.Run(ctx, p.Symbol)
	if err != nil {
		return err
	}
	if err := j.proc.Process(ctx, res.Events()); err != nil {
		return err
	}
	if j.inval != nil {
		j.inval.InvalidateSymbol(ctx, p.Symbol)
	}
	return nil
}

var _ queue.Job = (*ScanJob)(nil)
