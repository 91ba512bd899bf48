package vrf

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"raffleworld/internal/raffle"
)

type call struct {
	id    raffle.RequestID
	value *big.Int
}

type recordingConsumer struct {
	mu    sync.Mutex
	calls []call
	errs  []error
	done  chan struct{}
}

func newRecordingConsumer(errs ...error) *recordingConsumer {
	return &recordingConsumer{errs: errs, done: make(chan struct{}, 16)}
}

func (c *recordingConsumer) FulfillRandomness(_ context.Context, id raffle.RequestID, value *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, call{id: id, value: value})
	c.done <- struct{}{}
	if len(c.errs) == 0 {
		return nil
	}
	err := c.errs[0]
	c.errs = c.errs[1:]
	return err
}

func (c *recordingConsumer) snapshot() []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]call(nil), c.calls...)
}

func stubRandomValue(t *testing.T, v int64) {
	t.Helper()
	prev := randomValue
	randomValue = func() (*big.Int, error) { return big.NewInt(v), nil }
	t.Cleanup(func() { randomValue = prev })
}

func waitCalls(t *testing.T, consumer *recordingConsumer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-consumer.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for call %d of %d", i+1, n)
		}
	}
}

func runCoordinator(t *testing.T, coordinator *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = coordinator.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestCoordinatorFulfills(t *testing.T) {
	stubRandomValue(t, 777)

	coordinator := NewCoordinator(Config{KeyHash: [32]byte{1}})
	consumer := newRecordingConsumer()
	coordinator.Bind(consumer)
	runCoordinator(t, coordinator)

	id, err := coordinator.RequestRandomness(context.Background(), [32]byte{9}, 100)
	if err != nil {
		t.Fatalf("RequestRandomness failed: %v", err)
	}
	waitCalls(t, consumer, 1)

	calls := consumer.snapshot()
	if calls[0].id != id {
		t.Fatalf("got id=%s want=%s", calls[0].id, id)
	}
	if calls[0].value.Int64() != 777 {
		t.Fatalf("got value=%s want=777", calls[0].value)
	}
}

func TestCoordinatorRequestIDsAreUnique(t *testing.T) {
	coordinator := NewCoordinator(Config{QueueSize: 4})
	seed := [32]byte{7}

	first, err := coordinator.RequestRandomness(context.Background(), seed, 0)
	if err != nil {
		t.Fatalf("RequestRandomness failed: %v", err)
	}
	second, err := coordinator.RequestRandomness(context.Background(), seed, 0)
	if err != nil {
		t.Fatalf("RequestRandomness failed: %v", err)
	}
	if first == second {
		t.Fatal("same seed produced the same request id twice")
	}
}

func TestCoordinatorRetries(t *testing.T) {
	stubRandomValue(t, 1)

	coordinator := NewCoordinator(Config{MaxAttempts: 3})
	consumer := newRecordingConsumer(errors.New("busy"), errors.New("busy"))
	coordinator.Bind(consumer)
	runCoordinator(t, coordinator)

	if _, err := coordinator.RequestRandomness(context.Background(), [32]byte{}, 0); err != nil {
		t.Fatalf("RequestRandomness failed: %v", err)
	}
	waitCalls(t, consumer, 3)

	calls := consumer.snapshot()
	if calls[0].value != calls[2].value {
		t.Fatal("retries should deliver the same random value")
	}
}

func TestCoordinatorStopsOnTerminalError(t *testing.T) {
	stubRandomValue(t, 1)

	coordinator := NewCoordinator(Config{MaxAttempts: 5})
	consumer := newRecordingConsumer(raffle.ErrAlreadyDecided)
	coordinator.Bind(consumer)
	runCoordinator(t, coordinator)

	_, _ = coordinator.RequestRandomness(context.Background(), [32]byte{1}, 0)
	_, _ = coordinator.RequestRandomness(context.Background(), [32]byte{2}, 0)
	waitCalls(t, consumer, 2)

	calls := consumer.snapshot()
	if len(calls) != 2 || calls[0].id == calls[1].id {
		t.Fatalf("expected one delivery per request, got %d calls", len(calls))
	}
}

func TestCoordinatorQueueFull(t *testing.T) {
	coordinator := NewCoordinator(Config{QueueSize: 1})

	if _, err := coordinator.RequestRandomness(context.Background(), [32]byte{}, 0); err != nil {
		t.Fatalf("RequestRandomness failed: %v", err)
	}
	if _, err := coordinator.RequestRandomness(context.Background(), [32]byte{}, 0); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("got err=%v want=%v", err, ErrQueueFull)
	}
}

func TestCoordinatorRunStopsOnCancel(t *testing.T) {
	coordinator := NewCoordinator(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := coordinator.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got err=%v want=%v", err, context.Canceled)
	}
}
