package blockchain

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"raffleworld/internal/raffle"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

var (
	owner = ton.AccountID{Workchain: 0, Address: [32]byte{0: 0xAB, 31: 1}}
	token = ton.AccountID{Workchain: 0, Address: [32]byte{31: 7}}
)

func TestRaffleCreatedSurvivesEncoding(t *testing.T) {
	created := raffle.RaffleCreated{
		Header:       raffle.Header{Actor: owner, Index: 12},
		Name:         "Weekly jetton raffle",
		StartDate:    time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC),
		PrizeToken:   token,
		TicketToken:  owner,
		PrizeAmount:  1_000_000_000_000_000_000,
		TicketsLimit: 5,
		TicketPrice:  100_000_000,
		LockDays:     30,
	}

	encoded, err := EncodeHex(created)
	if err != nil {
		t.Fatalf("EncodeHex failed: %v", err)
	}
	decoded, err := DecodeHex(encoded)
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}

	got, ok := decoded.(raffle.RaffleCreated)
	if !ok {
		t.Fatalf("got %T, want raffle.RaffleCreated", decoded)
	}
	if got.Name != created.Name || !got.StartDate.Equal(created.StartDate) {
		t.Fatalf("got name=%q start=%s want name=%q start=%s", got.Name, got.StartDate, created.Name, created.StartDate)
	}
	if got.Header != created.Header || got.PrizeToken != token || got.TicketToken != owner {
		t.Fatalf("addresses differ: got %+v", got)
	}
	if got.PrizeAmount != created.PrizeAmount || got.TicketPrice != created.TicketPrice || got.LockDays != 30 || got.TicketsLimit != 5 {
		t.Fatalf("amounts differ: got %+v", got)
	}
}

func TestRaffleDecidedSurvivesEncoding(t *testing.T) {
	randomness, _ := new(big.Int).SetString("98765432109876543210987654321", 10)
	decided := raffle.RaffleDecided{
		Header:     raffle.Header{Actor: owner, Index: 3},
		RequestID:  raffle.RequestID{1, 2, 3},
		Randomness: randomness,
		Winners:    2,
	}

	encoded, err := EncodeHex(decided)
	if err != nil {
		t.Fatalf("EncodeHex failed: %v", err)
	}
	decoded, err := DecodeHex(encoded)
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}

	got := decoded.(raffle.RaffleDecided)
	if got.RequestID != decided.RequestID || got.Winners != 2 {
		t.Fatalf("got %+v", got)
	}
	if got.Randomness.Cmp(randomness) != 0 {
		t.Fatalf("randomness got=%s want=%s", got.Randomness, randomness)
	}
}

func TestCompactEvents(t *testing.T) {
	header := raffle.Header{Actor: owner, Index: 1}
	events := []raffle.Event{
		raffle.CancelRaffle{Header: header},
		raffle.AddPercentage{Header: header, Slot: 15, Share: 10000},
		raffle.WithdrawTickets{Header: header, Quantity: 2},
		raffle.PrizePaid{Header: header, Slot: 0, Ticket: 4, Amount: 850},
		raffle.RandomnessRequested{Header: header, RequestID: raffle.RequestID{31: 9}, Fee: 100_000_000_000_000_000},
	}

	for _, event := range events {
		t.Run(event.EventName(), func(t *testing.T) {
			encoded, err := EncodeHex(event)
			if err != nil {
				t.Fatalf("EncodeHex failed: %v", err)
			}
			decoded, err := DecodeHex(encoded)
			if err != nil {
				t.Fatalf("DecodeHex failed: %v", err)
			}
			if decoded != event {
				t.Fatalf("got %+v want %+v", decoded, event)
			}
		})
	}
}

func TestNameIsTruncated(t *testing.T) {
	long := strings.Repeat("é", 40)
	event := raffle.SetRaffleName{Header: raffle.Header{Actor: owner}, Name: long}

	encoded, err := EncodeHex(event)
	if err != nil {
		t.Fatalf("EncodeHex failed: %v", err)
	}
	decoded, err := DecodeHex(encoded)
	if err != nil {
		t.Fatalf("DecodeHex failed: %v", err)
	}

	name := decoded.(raffle.SetRaffleName).Name
	if len(name) != MaxNameBytes {
		t.Fatalf("got %d bytes, want %d", len(name), MaxNameBytes)
	}
	if !strings.HasPrefix(long, name) {
		t.Fatalf("got %q, not a prefix of the input name", name)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	cell := boc.NewCell()
	if err := cell.WriteUint(0xDEADBEEF, 32); err != nil {
		t.Fatalf("WriteUint failed: %v", err)
	}
	if err := tlb.Marshal(cell, owner.ToMsgAddress()); err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := cell.WriteUint(1, 64); err != nil {
		t.Fatalf("WriteUint failed: %v", err)
	}
	b, err := cell.ToBoc()
	if err != nil {
		t.Fatalf("ToBoc failed: %v", err)
	}

	if _, err := DecodeHex(hex.EncodeToString(b)); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("got err=%v want=%v", err, ErrUnknownOpcode)
	}
	if _, ok := Opcode("Unknown"); ok {
		t.Fatal("unexpected opcode for unknown event")
	}
}

func TestEncodeUnknownEvent(t *testing.T) {
	if _, err := Encode(unknownEvent{}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("got err=%v want=%v", err, ErrUnknownEvent)
	}
}

type unknownEvent struct{ raffle.Header }

func (unknownEvent) EventName() string { return "Unknown" }
func (unknownEvent) Attributes() map[string]string { return nil }
