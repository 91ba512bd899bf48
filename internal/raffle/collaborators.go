package raffle

import (
	"context"
	"errors"
	"time"

	"github.com/tonkeeper/tongo/ton"
)

// TokenLedger is a fungible token store. The registry acts as spender for
// allowance-gated transfers and as sender for transfers out of custody.
// Approve is only used to put back an allowance consumed by a purchase
// that could not complete.
type TokenLedger interface {
	BalanceOf(holder ton.AccountID) uint64
	Allowance(holder, spender ton.AccountID) uint64
	Approve(holder, spender ton.AccountID, amount uint64)
	TransferFrom(spender, holder, recipient ton.AccountID, amount uint64) error
	Transfer(sender, recipient ton.AccountID, amount uint64) error
}

// TokenDirectory resolves a token master address to its ledger.
type TokenDirectory interface {
	Ledger(token ton.AccountID) (TokenLedger, error)
}

// RandomnessOracle must not call back into the registry from
// RequestRandomness; fulfillment arrives later through FulfillRandomness.
type RandomnessOracle interface {
	RequestRandomness(ctx context.Context, seed [32]byte, fee uint64) (RequestID, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type EventSink interface {
	HandleEvent(ctx context.Context, event Event) error
}

// Sinks fans an event out to every sink and joins their errors.
type Sinks []EventSink

func (s Sinks) HandleEvent(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range s {
		if err := sink.HandleEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Operation names an owner-gated registry call for Policy decisions.
type Operation string

const (
	OpCreate           Operation = "create"
	OpSetName          Operation = "set_name"
	OpSetStartDate     Operation = "set_start_date"
	OpSetPrizeAmount   Operation = "set_prize_amount"
	OpSetTicketsLimit  Operation = "set_tickets_limit"
	OpSetTicketPrice   Operation = "set_ticket_price"
	OpSetLockDays      Operation = "set_lock_days"
	OpCancel           Operation = "cancel"
	OpActivate         Operation = "activate"
	OpAddPercentage    Operation = "add_percentage"
	OpRemovePercentage Operation = "remove_percentage"
	OpDecide           Operation = "decide"
)

type Policy interface {
	Authorize(caller ton.AccountID, op Operation) error
}

// OwnerPolicy admits a single privileged address for every operation.
type OwnerPolicy struct {
	Owner ton.AccountID
}

func (p OwnerPolicy) Authorize(caller ton.AccountID, _ Operation) error {
	if caller != p.Owner {
		return ErrUnauthorized
	}
	return nil
}
