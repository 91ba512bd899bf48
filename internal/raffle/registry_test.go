package raffle

import (
	"context"
	"errors"
	"testing"
)

type failingSink struct{ calls int }

func (s *failingSink) HandleEvent(context.Context, Event) error {
	s.calls++
	return errors.New("sink down")
}

func TestNewRegistryRequiresCollaborators(t *testing.T) {
	if _, err := NewRegistry(Options{Tokens: fakeTokens{}, Oracle: &fakeOracle{}}); err == nil {
		t.Error("expected an error without a policy")
	}
	if _, err := NewRegistry(Options{Policy: OwnerPolicy{}, Oracle: &fakeOracle{}}); err == nil {
		t.Error("expected an error without a token directory")
	}
	if _, err := NewRegistry(Options{Policy: OwnerPolicy{}, Tokens: fakeTokens{}}); err == nil {
		t.Error("expected an error without an oracle")
	}
}

func TestSinkFailureKeepsCommittedState(t *testing.T) {
	failing := &failingSink{}
	recording := &recordingSink{}
	f := newFixture(t, func(o *Options) { o.Sink = Sinks{failing, recording} })

	index := f.createRaffle(t)
	if err := f.registry.Cancel(context.Background(), ownerAccount, index); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if failing.calls != 2 || len(recording.events) != 2 {
		t.Fatalf("got failing=%d recording=%d deliveries, want 2 each", failing.calls, len(recording.events))
	}
	if got := f.registry.ActiveRafflesLength(); got != 0 {
		t.Fatalf("active got=%d want=0", got)
	}
}

func TestShareOf(t *testing.T) {
	tests := []struct {
		amount uint64
		share  uint32
		want   uint64
	}{
		{amount: 1000, share: 10000, want: 1000},
		{amount: 1000, share: 2500, want: 250},
		{amount: 999, share: 3333, want: 332},
		{amount: ^uint64(0), share: 10000, want: ^uint64(0)},
		{amount: 7, share: 0, want: 0},
	}
	for _, tt := range tests {
		if got := shareOf(tt.amount, tt.share); got != tt.want {
			t.Errorf("shareOf(%d, %d) got=%d want=%d", tt.amount, tt.share, got, tt.want)
		}
	}
}

func TestMulAmountOverflow(t *testing.T) {
	if _, err := mulAmount(^uint64(0), 2); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("got err=%v want=%v", err, ErrAmountOverflow)
	}
	if got, err := mulAmount(3, 1000); err != nil || got != 3000 {
		t.Fatalf("got %d, %v want 3000", got, err)
	}
}
