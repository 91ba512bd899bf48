package raffle

import (
	"context"
	"fmt"

	"raffleworld/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// BuyTickets charges quantity × ticket price from the buyer and records a
// new ticket lot. The purchase that sells the raffle out also requests
// randomness; it does not wait for the draw.
func (r *Registry) BuyTickets(ctx context.Context, buyer ton.AccountID, index uint64, quantity uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.get(index)
	if err != nil {
		return err
	}
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	if !entry.active {
		return ErrRaffleCanceled
	}

	now := r.options.Clock.Now()
	if now.Before(entry.startDate) {
		return ErrNotStarted
	}
	if quantity > entry.ticketsLimit-entry.ticketsSold {
		return ErrSoldOut
	}
	if err := entry.checkOpen(); err != nil {
		return err
	}

	cost, err := mulAmount(quantity, entry.ticketPrice)
	if err != nil {
		return err
	}
	ticketLedger, err := r.ledger(entry.ticketToken)
	if err != nil {
		return err
	}
	allowance := ticketLedger.Allowance(buyer, r.options.Custody)
	if allowance < cost {
		return ErrInsufficientAllowance
	}

	soldOut := entry.ticketsSold+quantity == entry.ticketsLimit
	if soldOut {
		if err := r.checkOracleFee(); err != nil {
			return err
		}
	}

	if err := ticketLedger.TransferFrom(r.options.Custody, buyer, r.options.Custody, cost); err != nil {
		return fmt.Errorf("buy tickets: %w", err)
	}

	var requested *RandomnessRequested
	if soldOut {
		event, err := r.requestRandomness(ctx, index, entry.ticketsSold+quantity, now)
		if err != nil {
			r.undoPurchase(ticketLedger, index, buyer, cost, allowance)
			return err
		}
		requested = &event
	}

	entry.ticketsSold += quantity
	entry.sequence++
	position := entry.position(buyer)
	position.Lots = append(position.Lots, TicketLot{
		Sequence:    entry.sequence,
		Quantity:    quantity,
		Remaining:   quantity,
		UnitPrice:   entry.ticketPrice,
		PurchasedAt: now,
	})

	events := []Event{BuyTickets{Header: Header{Actor: buyer, Index: index}, Quantity: quantity}}
	if requested != nil {
		entry.await(requested.RequestID)
		r.requests[requested.RequestID] = index
		events = append(events, *requested)
	}

	r.publish(ctx, events...)
	return nil
}

// undoPurchase returns the payment and the allowance it consumed.
func (r *Registry) undoPurchase(ledger TokenLedger, index uint64, buyer ton.AccountID, cost, allowance uint64) {
	if err := ledger.Transfer(r.options.Custody, buyer, cost); err != nil {
		logger.Error("registry: purchase refund failed",
			zap.Uint64("raffle", index),
			zap.String("buyer", buyer.ToRaw()),
			zap.Uint64("amount", cost),
			zap.Error(err),
		)
		return
	}
	ledger.Approve(buyer, r.options.Custody, allowance)
}

type lotTake struct {
	lot      int
	quantity uint64
}

// WithdrawTickets refunds up to quantity unlocked tickets, oldest lots
// first, and returns the quantity actually withdrawn. Tickets sold are not
// decremented, so withdrawn tickets cannot be sold again. Once the draw has
// been requested the tickets are final.
func (r *Registry) WithdrawTickets(ctx context.Context, buyer ton.AccountID, index uint64, quantity uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.get(index)
	if err != nil {
		return 0, err
	}
	if quantity == 0 {
		return 0, ErrInvalidQuantity
	}
	if err := entry.checkOpen(); err != nil {
		return 0, err
	}

	now := r.options.Clock.Now()
	position, ok := entry.positions[buyer]
	if !ok || position.unlocked(now, entry.lockDays) == 0 {
		return 0, ErrNoTicketsLeft
	}

	var (
		takes     []lotTake
		withdrawn uint64
		refund    uint64
	)
	for i, lot := range position.Lots {
		if withdrawn == quantity {
			break
		}
		if lot.Remaining == 0 || !lot.unlocked(now, entry.lockDays) {
			continue
		}

		take := min(lot.Remaining, quantity-withdrawn)
		amount, err := mulAmount(take, lot.UnitPrice)
		if err != nil {
			return 0, err
		}
		takes = append(takes, lotTake{lot: i, quantity: take})
		withdrawn += take
		refund += amount
	}

	ticketLedger, err := r.ledger(entry.ticketToken)
	if err != nil {
		return 0, err
	}
	if err := ticketLedger.Transfer(r.options.Custody, buyer, refund); err != nil {
		return 0, fmt.Errorf("withdraw tickets: %w", err)
	}

	for _, take := range takes {
		position.Lots[take.lot].Remaining -= take.quantity
	}

	r.publish(ctx, WithdrawTickets{Header: Header{Actor: buyer, Index: index}, Quantity: withdrawn})
	return withdrawn, nil
}
