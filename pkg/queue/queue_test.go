package queue

import (
	"encoding/json"
	"testing"
)

type scanPayload struct {
	Symbol string `json:"symbol"`
}

func TestParsePayloadStruct(t *testing.T) {
	p, err := ParsePayload[scanPayload](scanPayload{Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("parse struct: %v", err)
	}
	if p.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol: %s", p.Symbol)
	}

	p, err = ParsePayload[scanPayload](&scanPayload{Symbol: "ETHUSDT"})
	if err != nil {
		t.Fatalf("parse pointer: %v", err)
	}
	if p.Symbol != "ETHUSDT" {
		t.Fatalf("unexpected symbol: %s", p.Symbol)
	}
}

func TestParsePayloadAfterRedisRoundTrip(t *testing.T) {
	// redis delivers payloads as generic maps or raw JSON
	p, err := ParsePayload[scanPayload](map[string]interface{}{"symbol": "BTCUSDT"})
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	if p.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol: %s", p.Symbol)
	}

	p, err = ParsePayload[scanPayload](json.RawMessage(`{"symbol":"SOLUSDT"}`))
	if err != nil {
		t.Fatalf("parse raw json: %v", err)
	}
	if p.Symbol != "SOLUSDT" {
		t.Fatalf("unexpected symbol: %s", p.Symbol)
	}
}

func TestParsePayloadRejectsUnknownType(t *testing.T) {
	if _, err := ParsePayload[scanPayload](42); err == nil {
		t.Fatal("expected error for unsupported payload type")
	}
}
