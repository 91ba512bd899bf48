package raffle

import (
	"context"
	"fmt"
	"time"

	"raffleworld/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

// Create escrows the prize from the caller and appends a new active raffle.
func (r *Registry) Create(ctx context.Context, caller ton.AccountID, params RaffleParams) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Debug("registry: creating raffle...", zap.String("name", params.Name))

	if err := r.authorize(caller, OpCreate); err != nil {
		return 0, err
	}
	if !params.StartDate.After(r.options.Clock.Now()) {
		return 0, ErrInvalidSchedule
	}
	if params.PrizeAmount == 0 {
		return 0, ErrInvalidAmount
	}
	if params.TicketsLimit == 0 {
		return 0, ErrInvalidLimit
	}

	ticketToken := params.TicketToken
	if ticketToken == (ton.AccountID{}) {
		ticketToken = params.PrizeToken
	}
	if _, err := r.ledger(ticketToken); err != nil {
		return 0, fmt.Errorf("ticket token: %w", err)
	}

	prizeLedger, err := r.ledger(params.PrizeToken)
	if err != nil {
		return 0, fmt.Errorf("prize token: %w", err)
	}
	if prizeLedger.Allowance(caller, r.options.Custody) < params.PrizeAmount {
		return 0, ErrInsufficientPrizeFunding
	}
	if err := prizeLedger.TransferFrom(r.options.Custody, caller, r.options.Custody, params.PrizeAmount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInsufficientPrizeFunding, err)
	}

	index := uint64(len(r.raffles))
	r.raffles = append(r.raffles, &raffle{
		name:         params.Name,
		startDate:    params.StartDate,
		prizeToken:   params.PrizeToken,
		ticketToken:  ticketToken,
		prizeAmount:  params.PrizeAmount,
		escrowed:     params.PrizeAmount,
		ticketsLimit: params.TicketsLimit,
		ticketPrice:  params.TicketPrice,
		lockDays:     params.LockDays,
		active:       true,
		state:        Open,
		positions:    make(map[ton.AccountID]*BuyerPosition),
	})
	r.active++

	r.publish(ctx, RaffleCreated{
		Header:       Header{Actor: caller, Index: index},
		Name:         params.Name,
		StartDate:    params.StartDate,
		PrizeToken:   params.PrizeToken,
		TicketToken:  ticketToken,
		PrizeAmount:  params.PrizeAmount,
		TicketsLimit: params.TicketsLimit,
		TicketPrice:  params.TicketPrice,
		LockDays:     params.LockDays,
	})

	logger.Debug("registry: creating raffle... done", zap.Uint64("index", index))
	return index, nil
}

func (r *Registry) SetName(ctx context.Context, caller ton.AccountID, index uint64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpSetName, index)
	if err != nil {
		return err
	}

	entry.name = name
	r.publish(ctx, SetRaffleName{Header: Header{Actor: caller, Index: index}, Name: name})
	return nil
}

func (r *Registry) SetStartDate(ctx context.Context, caller ton.AccountID, index uint64, startDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpSetStartDate, index)
	if err != nil {
		return err
	}
	if !startDate.After(r.options.Clock.Now()) {
		return ErrInvalidSchedule
	}

	entry.startDate = startDate
	r.publish(ctx, SetRaffleStartDate{Header: Header{Actor: caller, Index: index}, StartDate: startDate})
	return nil
}

// SetPrizeAmount changes the announced prize only; escrow is not adjusted.
func (r *Registry) SetPrizeAmount(ctx context.Context, caller ton.AccountID, index uint64, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpSetPrizeAmount, index)
	if err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}

	entry.prizeAmount = amount
	r.publish(ctx, SetRafflePrizeAmount{Header: Header{Actor: caller, Index: index}, PrizeAmount: amount})
	return nil
}

func (r *Registry) SetTicketsLimit(ctx context.Context, caller ton.AccountID, index uint64, limit uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpSetTicketsLimit, index)
	if err != nil {
		return err
	}
	if limit == 0 || limit < entry.ticketsSold {
		return ErrInvalidLimit
	}

	entry.ticketsLimit = limit
	r.publish(ctx, SetRaffleTicketsLimit{Header: Header{Actor: caller, Index: index}, TicketsLimit: limit})
	return nil
}

func (r *Registry) SetTicketPrice(ctx context.Context, caller ton.AccountID, index uint64, price uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpSetTicketPrice, index)
	if err != nil {
		return err
	}

	entry.ticketPrice = price
	r.publish(ctx, SetRaffleTicketPrice{Header: Header{Actor: caller, Index: index}, TicketPrice: price})
	return nil
}

func (r *Registry) SetLockDays(ctx context.Context, caller ton.AccountID, index uint64, days uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpSetLockDays, index)
	if err != nil {
		return err
	}

	entry.lockDays = days
	r.publish(ctx, SetRaffleLockDays{Header: Header{Actor: caller, Index: index}, LockDays: days})
	return nil
}

func (r *Registry) Cancel(ctx context.Context, caller ton.AccountID, index uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpCancel, index)
	if err != nil {
		return err
	}
	if !entry.active {
		return ErrAlreadyCanceled
	}

	entry.active = false
	r.active--
	r.publish(ctx, CancelRaffle{Header{Actor: caller, Index: index}})
	return nil
}

func (r *Registry) Activate(ctx context.Context, caller ton.AccountID, index uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpActivate, index)
	if err != nil {
		return err
	}
	if entry.active {
		return ErrAlreadyActive
	}

	entry.active = true
	r.active++
	r.publish(ctx, ActivateRaffle{Header{Actor: caller, Index: index}})
	return nil
}
