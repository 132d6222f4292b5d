package history

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// AsyncSink decorates a Sink with fire-and-forget delivery: Append
// returns immediately and the write happens on a background goroutine.
//
// Delivery is at-most-once, best-effort: no retry, no await. The drill
// may move on to the next question before the previous attempt has
// finished persisting, and a failed write is warned about and dropped.
type AsyncSink struct {
	inner Sink
	errc  chan error
	wg    sync.WaitGroup
	once  sync.Once
}

// NewAsyncSink wraps a sink with background delivery.
func NewAsyncSink(inner Sink) *AsyncSink {
	a := &AsyncSink{
		inner: inner,
		errc:  make(chan error, 16),
	}
	go a.drain()
	return a
}

// drain consumes and discards background write errors.
func (a *AsyncSink) drain() {
	for err := range a.errc {
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history write failed: %v\n", err)
		}
	}
}

// Append schedules the write and returns nil immediately.
// The caller's context is deliberately not propagated: the write should
// outlive the UI action that triggered it.
func (a *AsyncSink) Append(_ context.Context, rec Record) error {
	a.submit(func() error {
		return a.inner.Append(context.Background(), rec)
	})
	return nil
}

// AppendResult schedules the write and returns nil immediately.
func (a *AsyncSink) AppendResult(_ context.Context, res Result) error {
	a.submit(func() error {
		return a.inner.AppendResult(context.Background(), res)
	})
	return nil
}

func (a *AsyncSink) submit(write func() error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case a.errc <- write():
		default:
			// Error channel full: drop. Best-effort by contract.
		}
	}()
}

// Close waits for in-flight writes and stops the drain goroutine.
// Pending write outcomes are still discarded; Close only exists so a
// clean shutdown doesn't lose rows that were already scheduled.
func (a *AsyncSink) Close() {
	a.once.Do(func() {
		a.wg.Wait()
		close(a.errc)
	})
}
