// Package raffle holds the raffle registry: raffle lifecycle, winning
// percentages, ticket accounting and the randomness-driven payout.
package raffle

import (
	"encoding/hex"
	"time"

	"github.com/tonkeeper/tongo/ton"
)

const (
	// MaxShare is 100% expressed in basis points.
	MaxShare uint32 = 10000

	MaxPercentageSlots = 16

	lockDayDuration = 24 * time.Hour
)

type DrawState uint8

const (
	Open DrawState = iota
	AwaitingRandomness
	Decided
)

func (s DrawState) String() string {
	switch s {
	case Open:
		return "open"
	case AwaitingRandomness:
		return "awaiting_randomness"
	case Decided:
		return "decided"
	default:
		return "unknown"
	}
}

// RequestID identifies a randomness request issued to the oracle.
type RequestID [32]byte

func (id RequestID) String() string {
	return hex.EncodeToString(id[:])
}

func (id RequestID) IsZero() bool {
	return id == RequestID{}
}

func ParseRequestID(s string) (RequestID, error) {
	var id RequestID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, hex.ErrLength
	}
	copy(id[:], b)
	return id, nil
}

// RaffleParams is the input of Registry.Create.
type RaffleParams struct {
	Name         string
	StartDate    time.Time
	PrizeToken   ton.AccountID
	PrizeAmount  uint64
	TicketsLimit uint64
	TicketPrice  uint64
	LockDays     uint32

	// TicketToken defaults to PrizeToken when zero.
	TicketToken ton.AccountID
}

type PercentageSlot struct {
	Occupied bool
	Share    uint32
}

type TicketLot struct {
	Sequence    uint64
	Quantity    uint64
	Remaining   uint64
	UnitPrice   uint64
	PurchasedAt time.Time
}

func (l TicketLot) unlocked(now time.Time, lockDays uint32) bool {
	return !now.Before(l.PurchasedAt.Add(time.Duration(lockDays) * lockDayDuration))
}

type BuyerPosition struct {
	Lots []TicketLot
}

func (p *BuyerPosition) held() uint64 {
	var total uint64
	for _, lot := range p.Lots {
		total += lot.Remaining
	}
	return total
}

func (p *BuyerPosition) unlocked(now time.Time, lockDays uint32) uint64 {
	var total uint64
	for _, lot := range p.Lots {
		if lot.unlocked(now, lockDays) {
			total += lot.Remaining
		}
	}
	return total
}

type raffle struct {
	name         string
	startDate    time.Time
	prizeToken   ton.AccountID
	ticketToken  ton.AccountID
	prizeAmount  uint64
	escrowed     uint64
	ticketsLimit uint64
	ticketPrice  uint64
	lockDays     uint32
	ticketsSold  uint64
	active       bool

	state       DrawState
	requestID   RequestID
	percentages [MaxPercentageSlots]PercentageSlot
	positions   map[ton.AccountID]*BuyerPosition
	buyers      []ton.AccountID
	sequence    uint64
}

func (r *raffle) shareTotal() uint32 {
	var total uint32
	for _, slot := range r.percentages {
		if slot.Occupied {
			total += slot.Share
		}
	}
	return total
}

func (r *raffle) heldTickets() uint64 {
	var total uint64
	for _, position := range r.positions {
		total += position.held()
	}
	return total
}

func (r *raffle) refundable() uint64 {
	var total uint64
	for _, position := range r.positions {
		for _, lot := range position.Lots {
			amount, err := mulAmount(lot.Remaining, lot.UnitPrice)
			if err != nil {
				return ^uint64(0)
			}
			total = addAmount(total, amount)
		}
	}
	return total
}

func (r *raffle) position(buyer ton.AccountID) *BuyerPosition {
	position, ok := r.positions[buyer]
	if !ok {
		position = &BuyerPosition{}
		r.positions[buyer] = position
		r.buyers = append(r.buyers, buyer)
	}
	return position
}

// RaffleView is a read-only snapshot of a raffle.
type RaffleView struct {
	Index        uint64
	Name         string
	StartDate    time.Time
	PrizeToken   ton.AccountID
	TicketToken  ton.AccountID
	PrizeAmount  uint64
	Escrowed     uint64
	TicketsLimit uint64
	TicketPrice  uint64
	LockDays     uint32
	TicketsSold  uint64
	HeldTickets  uint64
	Active       bool
	State        DrawState
	RequestID    RequestID
	Percentages  [MaxPercentageSlots]PercentageSlot
}

func (r *raffle) view(index uint64) RaffleView {
	return RaffleView{
		Index:        index,
		Name:         r.name,
		StartDate:    r.startDate,
		PrizeToken:   r.prizeToken,
		TicketToken:  r.ticketToken,
		PrizeAmount:  r.prizeAmount,
		Escrowed:     r.escrowed,
		TicketsLimit: r.ticketsLimit,
		TicketPrice:  r.ticketPrice,
		LockDays:     r.lockDays,
		TicketsSold:  r.ticketsSold,
		HeldTickets:  r.heldTickets(),
		Active:       r.active,
		State:        r.state,
		RequestID:    r.requestID,
		Percentages:  r.percentages,
	}
}

// PositionView is a read-only snapshot of a buyer's tickets in one raffle.
type PositionView struct {
	Buyer    ton.AccountID
	Held     uint64
	Unlocked uint64
	Lots     []TicketLot
}
