package usecase

import (
	"context"
	"encoding/json"
	"time"

	pkgkafka "RallyScan/pkg/kafka"

	drepo "RallyScan/internal/domain/repository"
)

// KafkaScanHandler consumes scan requests and runs the pipeline. External
// systems (or an operator) drop {"symbol": "..."} messages on the request
// topic to trigger an out-of-schedule scan.
type KafkaScanHandler struct {
	topic    string
	pipeline *ScanPipeline
	proc     *EventProcessor
	metrics  drepo.Metrics
}

func NewKafkaScanHandler(topic string, pipeline *ScanPipeline, proc *EventProcessor, metrics drepo.Metrics) *KafkaScanHandler {
	return &KafkaScanHandler{topic: topic, pipeline: pipeline, proc: proc, metrics: metrics}
}

func (h *KafkaScanHandler) Topic() string { return h.topic }

// incoming message schema: {symbol}
func (h *KafkaScanHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" {
		h.metrics.RecordError("consumer_empty_symbol")
		return nil // malformed request, nothing to retry
	}

	start := time.Now()
	res, err := h.pipeline.Run(ctx, m.Symbol)
	if err != nil {
		h.metrics.RecordError("consumer_scan")
		return err
	}
	if err := h.proc.Process(ctx, res.Events()); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("scan_request_seconds", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaScanHandler)(nil)
