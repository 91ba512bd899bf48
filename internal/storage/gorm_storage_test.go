package storage

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"raffleworld/internal/blockchain"
	"raffleworld/internal/raffle"

	"github.com/tonkeeper/tongo/ton"
)

var actor = ton.AccountID{Workchain: 0, Address: [32]byte{31: 5}}

func openTestStorage(t *testing.T) *GormStorage {
	t.Helper()

	s, err := NewGormStorage(SqliteDriver, filepath.Join(t.TempDir(), "raffleworld.db"))
	if err != nil {
		t.Fatalf("NewGormStorage failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewGormStorage("oracle", "dsn"); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestEventSinkPersistsAuditLog(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)

	sink, err := NewEventSink(s)
	if err != nil {
		t.Fatalf("NewEventSink failed: %v", err)
	}

	events := []raffle.Event{
		raffle.RaffleCreated{
			Header:       raffle.Header{Actor: actor, Index: 0},
			Name:         "first",
			StartDate:    time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
			PrizeAmount:  1000,
			TicketsLimit: 5,
			TicketPrice:  10,
		},
		raffle.BuyTickets{Header: raffle.Header{Actor: actor, Index: 1}, Quantity: 2},
		raffle.BuyTickets{Header: raffle.Header{Actor: actor, Index: 0}, Quantity: 3},
	}
	for _, event := range events {
		if err := sink.HandleEvent(ctx, event); err != nil {
			t.Fatalf("HandleEvent failed: %v", err)
		}
	}

	records, err := s.GetEvents(sink.RunID(), 0, 0, 10)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != raffle.RaffleCreatedEvent || records[1].Name != raffle.BuyTicketsEvent {
		t.Fatalf("got names %q, %q", records[0].Name, records[1].Name)
	}
	if records[0].Sequence != 1 || records[1].Sequence != 3 {
		t.Fatalf("got sequences %d, %d want 1, 3", records[0].Sequence, records[1].Sequence)
	}
	if got := records[1].Attributes["quantity"]; got != "3" {
		t.Fatalf("quantity attribute got=%v want=3", got)
	}
	if records[0].Actor != actor.ToRaw() {
		t.Fatalf("actor got=%q want=%q", records[0].Actor, actor.ToRaw())
	}

	decoded, err := blockchain.DecodeHex(records[1].Payload)
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}
	if buy, ok := decoded.(raffle.BuyTickets); !ok || buy.Quantity != 3 {
		t.Fatalf("payload decoded to %+v", decoded)
	}

	paged, err := s.GetEvents(sink.RunID(), 0, 1, 10)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(paged) != 1 || paged[0].Sequence != 3 {
		t.Fatalf("offset page got %d records", len(paged))
	}

	// A new sink resumes the sequence from the database.
	resumed, err := NewEventSink(s)
	if err != nil {
		t.Fatalf("NewEventSink failed: %v", err)
	}
	if err := resumed.HandleEvent(ctx, raffle.CancelRaffle{Header: raffle.Header{Actor: actor, Index: 0}}); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	last, err := s.GetLastEventSequence()
	if err != nil {
		t.Fatalf("GetLastEventSequence failed: %v", err)
	}
	if last != 4 {
		t.Fatalf("last sequence got=%d want=4", last)
	}
}

func TestEventSinkTracksRandomnessRequests(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	sink, err := NewEventSink(s)
	if err != nil {
		t.Fatalf("NewEventSink failed: %v", err)
	}

	id := raffle.RequestID{0: 0xAA, 31: 0x01}
	header := raffle.Header{Actor: actor, Index: 2}
	if err := sink.HandleEvent(ctx, raffle.RandomnessRequested{Header: header, RequestID: id, Fee: 100}); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	pending, err := s.GetPendingRandomnessRequests()
	if err != nil {
		t.Fatalf("GetPendingRandomnessRequests failed: %v", err)
	}
	if len(pending) != 1 || pending[0].RequestID != id.String() || pending[0].Fee != 100 {
		t.Fatalf("unexpected pending requests: %+v", pending)
	}

	decided := raffle.RaffleDecided{Header: header, RequestID: id, Randomness: big.NewInt(777), Winners: 1}
	if err := sink.HandleEvent(ctx, decided); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	request, err := s.GetRandomnessRequest(id.String())
	if err != nil {
		t.Fatalf("GetRandomnessRequest failed: %v", err)
	}
	if request.Status != FulfilledRequestStatus || request.Randomness != "777" || request.FulfilledAt == nil {
		t.Fatalf("unexpected request: %+v", request)
	}
	if request.Fee != 100 || request.RaffleIndex != 2 {
		t.Fatalf("fulfillment overwrote request data: %+v", request)
	}

	pending, _ = s.GetPendingRandomnessRequests()
	if len(pending) != 0 {
		t.Fatalf("got %d pending requests, want 0", len(pending))
	}
}

func TestEventSinkScopesRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)

	first, err := NewEventSink(s)
	if err != nil {
		t.Fatalf("NewEventSink failed: %v", err)
	}
	header := raffle.Header{Actor: actor, Index: 0}
	stale := raffle.RequestID{31: 0x07}
	if err := first.HandleEvent(ctx, raffle.BuyTickets{Header: header, Quantity: 4}); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if err := first.HandleEvent(ctx, raffle.RandomnessRequested{Header: header, RequestID: stale}); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	// A restart starts raffle indexes from zero again.
	second, err := NewEventSink(s)
	if err != nil {
		t.Fatalf("NewEventSink failed: %v", err)
	}
	if second.RunID() == first.RunID() {
		t.Fatal("both sinks share a run ID")
	}
	if err := second.HandleEvent(ctx, raffle.CancelRaffle{Header: header}); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}

	records, err := s.GetEvents(second.RunID(), 0, 0, 10)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(records) != 1 || records[0].Name != raffle.CancelRaffleEvent {
		t.Fatalf("current run sees %d records, want only its own CancelRaffle", len(records))
	}
	if previous, _ := s.GetEvents(first.RunID(), 0, 0, 10); len(previous) != 2 {
		t.Fatalf("previous run has %d records, want 2", len(previous))
	}

	pending, err := s.GetPendingRandomnessRequests()
	if err != nil {
		t.Fatalf("GetPendingRandomnessRequests failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("got %d pending requests after restart, want 0", len(pending))
	}
	request, err := s.GetRandomnessRequest(stale.String())
	if err != nil {
		t.Fatalf("GetRandomnessRequest failed: %v", err)
	}
	if request.Status != AbandonedRequestStatus {
		t.Fatalf("status got=%q want=%q", request.Status, AbandonedRequestStatus)
	}
}
