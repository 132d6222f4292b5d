// Package history persists attempt records to a spreadsheet workbook.
// It is an append-only sink: records are never read back by the drill
// itself, only by whoever opens the workbook.
package history

import (
	"context"
	"time"
)

// Record is one logged submission with its verdict.
type Record struct {
	Timestamp time.Time
	Student   string
	Grade     string
	Topic     string
	Tier      string
	Question  string
	Answer    string
	Verdict   string
}

// Result is a completed-session summary row, written once per finished
// drill alongside the per-attempt records.
type Result struct {
	Date    time.Time
	Student string
	Topic   string
	Score   float64 // percentage 0-100
	Grade   string
}

// Sink is an append-only store for attempt records.
type Sink interface {
	// Append writes one attempt record.
	Append(ctx context.Context, rec Record) error

	// AppendResult writes one session summary row.
	AppendResult(ctx context.Context, res Result) error
}

// NopSink discards everything. Used when persistence is disabled.
type NopSink struct{}

func (NopSink) Append(context.Context, Record) error       { return nil }
func (NopSink) AppendResult(context.Context, Result) error { return nil }
