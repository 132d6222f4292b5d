package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// slowSink records appends after an artificial delay.
type slowSink struct {
	mu      sync.Mutex
	delay   time.Duration
	err     error
	records []Record
	results []Result
}

func (s *slowSink) Append(_ context.Context, rec Record) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *slowSink) AppendResult(_ context.Context, res Result) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, res)
	return nil
}

func (s *slowSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), len(s.results)
}

func TestAsyncSink_AppendReturnsImmediately(t *testing.T) {
	inner := &slowSink{delay: 50 * time.Millisecond}
	sink := NewAsyncSink(inner)

	start := time.Now()
	if err := sink.Append(context.Background(), Record{Student: "Anaya"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Append blocked for %v, expected immediate return", elapsed)
	}

	sink.Close()
	if recs, _ := inner.counts(); recs != 1 {
		t.Errorf("expected 1 record after Close, got %d", recs)
	}
}

func TestAsyncSink_ErrorsAreSwallowed(t *testing.T) {
	inner := &slowSink{err: errors.New("disk full")}
	sink := NewAsyncSink(inner)

	for i := 0; i < 5; i++ {
		if err := sink.Append(context.Background(), Record{}); err != nil {
			t.Fatalf("Append must not surface write errors, got %v", err)
		}
	}
	if err := sink.AppendResult(context.Background(), Result{}); err != nil {
		t.Fatalf("AppendResult must not surface write errors, got %v", err)
	}

	sink.Close() // Must not panic or deadlock with a failing inner sink.
}

func TestAsyncSink_CloseWaitsForInFlightWrites(t *testing.T) {
	inner := &slowSink{delay: 20 * time.Millisecond}
	sink := NewAsyncSink(inner)

	for i := 0; i < 4; i++ {
		sink.Append(context.Background(), Record{})
	}
	sink.AppendResult(context.Background(), Result{})

	sink.Close()

	recs, results := inner.counts()
	if recs != 4 || results != 1 {
		t.Errorf("after Close: records/results = %d/%d, want 4/1", recs, results)
	}
}

func TestAsyncSink_CloseIsIdempotent(t *testing.T) {
	sink := NewAsyncSink(&slowSink{})
	sink.Close()
	sink.Close() // Second close must not panic.
}
