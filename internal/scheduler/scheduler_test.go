package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"pool-logger/internal/types"
)

type fakeFetcher struct {
	batches [][]types.Reading
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context) []types.Reading {
	f.calls++
	if len(f.batches) == 0 {
		return nil
	}
	batch := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return batch
}

type fakeWriter struct {
	err     error
	batches [][]types.Reading
}

func (w *fakeWriter) WriteBatch(ctx context.Context, readings []types.Reading) error {
	w.batches = append(w.batches, readings)
	return w.err
}

type fakeSink struct {
	name    string
	err     error
	batches [][]types.Reading
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Publish(ctx context.Context, readings []types.Reading) error {
	s.batches = append(s.batches, readings)
	return s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func oneReading() []types.Reading {
	return []types.Reading{{
		SystemID:   "sys1",
		PoolTemp:   ptr(84.5),
		AirTemp:    ptr(70.0),
		ObservedAt: time.Now().UTC(),
	}}
}

func TestRunOnce_FetchesAndWrites(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]types.Reading{oneReading()}}
	writer := &fakeWriter{}
	s := New(fetcher, writer, discardLogger())

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
	if len(writer.batches) != 1 {
		t.Fatalf("write calls = %d, want 1", len(writer.batches))
	}
	if len(writer.batches[0]) != 1 || writer.batches[0][0].SystemID != "sys1" {
		t.Errorf("written batch = %+v, want one sys1 reading", writer.batches[0])
	}
}

func TestRunOnce_PropagatesWriteError(t *testing.T) {
	wantErr := errors.New("db down")
	fetcher := &fakeFetcher{batches: [][]types.Reading{oneReading()}}
	writer := &fakeWriter{err: wantErr}
	s := New(fetcher, writer, discardLogger())

	err := s.RunOnce(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunOnce error = %v, want %v", err, wantErr)
	}
}

func TestRunOnce_EmptyBatchSkipsSinks(t *testing.T) {
	fetcher := &fakeFetcher{}
	writer := &fakeWriter{}
	sink := &fakeSink{name: "mqtt"}
	s := New(fetcher, writer, discardLogger(), sink)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	// Empty batch still reaches the writer, which no-ops.
	if len(writer.batches) != 1 {
		t.Errorf("write calls = %d, want 1", len(writer.batches))
	}
	if len(sink.batches) != 0 {
		t.Errorf("sink publishes = %d, want 0 for empty batch", len(sink.batches))
	}
}

func TestRunOnce_SinkFailureIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]types.Reading{oneReading()}}
	writer := &fakeWriter{}
	broken := &fakeSink{name: "mqtt", err: errors.New("broker unreachable")}
	healthy := &fakeSink{name: "cache"}
	s := New(fetcher, writer, discardLogger(), broken, healthy)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(broken.batches) != 1 {
		t.Errorf("broken sink publishes = %d, want 1", len(broken.batches))
	}
	if len(healthy.batches) != 1 {
		t.Errorf("healthy sink publishes = %d, want 1 (later sinks still run)", len(healthy.batches))
	}
}

func TestRunContinuous_StopsPromptlyOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]types.Reading{oneReading()}}
	writer := &fakeWriter{}
	s := New(fetcher, writer, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.RunContinuous(ctx, time.Hour)
	}()

	// Let the first cycle finish and the loop enter its wait.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunContinuous: %v, want nil on clean shutdown", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunContinuous did not stop within 1s of cancellation")
	}

	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1 (cancelled during first wait)", fetcher.calls)
	}
}

func TestRunContinuous_ReturnsWriteError(t *testing.T) {
	wantErr := errors.New("db down")
	fetcher := &fakeFetcher{batches: [][]types.Reading{oneReading()}}
	writer := &fakeWriter{err: wantErr}
	s := New(fetcher, writer, discardLogger())

	err := s.RunContinuous(context.Background(), time.Hour)
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunContinuous error = %v, want %v", err, wantErr)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func TestRunContinuous_CyclesUntilCancelled(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]types.Reading{oneReading()}}
	writer := &fakeWriter{}
	s := New(fetcher, writer, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.RunContinuous(ctx, 10*time.Millisecond)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunContinuous: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunContinuous did not stop")
	}

	if fetcher.calls < 2 {
		t.Errorf("fetch calls = %d, want at least 2", fetcher.calls)
	}
}
