package raffle

import (
	"context"
	"errors"
	"math/bits"
	"sync"

	"raffleworld/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

type Options struct {
	Policy Policy
	// Custody is the registry's own holder address: escrowed prizes and
	// ticket payments are kept there.
	Custody ton.AccountID
	Tokens  TokenDirectory
	Oracle  RandomnessOracle
	Clock   Clock
	Sink    EventSink

	KeyHash       [32]byte
	OracleFee     uint64
	FeeToken      ton.AccountID
	OracleAccount ton.AccountID
}

// Registry is the raffle state container. Every exported mutating method
// runs under a single mutex and either applies fully or returns an error
// without side effects.
type Registry struct {
	mu       sync.Mutex
	options  Options
	raffles  []*raffle
	active   uint64
	requests map[RequestID]uint64
}

func NewRegistry(options Options) (*Registry, error) {
	if options.Policy == nil {
		return nil, errors.New("raffle: policy is required")
	}
	if options.Tokens == nil {
		return nil, errors.New("raffle: token directory is required")
	}
	if options.Oracle == nil {
		return nil, errors.New("raffle: randomness oracle is required")
	}
	if options.Clock == nil {
		options.Clock = SystemClock{}
	}

	return &Registry{
		options:  options,
		raffles:  make([]*raffle, 0),
		requests: make(map[RequestID]uint64),
	}, nil
}

// Custody returns the address holding escrowed tokens.
func (r *Registry) Custody() ton.AccountID {
	return r.options.Custody
}

func (r *Registry) RafflesLength() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.raffles))
}

func (r *Registry) ActiveRafflesLength() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Registry) Raffle(index uint64) (RaffleView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.get(index)
	if err != nil {
		return RaffleView{}, err
	}
	return entry.view(index), nil
}

func (r *Registry) Position(index uint64, buyer ton.AccountID) (PositionView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.get(index)
	if err != nil {
		return PositionView{}, err
	}

	view := PositionView{Buyer: buyer, Lots: []TicketLot{}}
	position, ok := entry.positions[buyer]
	if !ok {
		return view, nil
	}

	view.Held = position.held()
	view.Unlocked = position.unlocked(r.options.Clock.Now(), entry.lockDays)
	view.Lots = append(view.Lots, position.Lots...)
	return view, nil
}

func (r *Registry) get(index uint64) (*raffle, error) {
	if index >= uint64(len(r.raffles)) {
		return nil, ErrNotFound
	}
	return r.raffles[index], nil
}

func (r *Registry) authorize(caller ton.AccountID, op Operation) error {
	if err := r.options.Policy.Authorize(caller, op); err != nil {
		logger.Warn("registry: unauthorized call", zap.String("caller", caller.ToRaw()), zap.String("operation", string(op)))
		return err
	}
	return nil
}

// ownerCall resolves the raffle for an owner-gated call.
func (r *Registry) ownerCall(caller ton.AccountID, op Operation, index uint64) (*raffle, error) {
	if err := r.authorize(caller, op); err != nil {
		return nil, err
	}
	return r.get(index)
}

func (r *Registry) ledger(token ton.AccountID) (TokenLedger, error) {
	return r.options.Tokens.Ledger(token)
}

// publish hands committed events to the sink. Sink failures do not undo
// the committed state; they are logged.
func (r *Registry) publish(ctx context.Context, events ...Event) {
	for _, event := range events {
		header := event.EventHeader()
		logger.Debug("registry: event",
			zap.String("name", event.EventName()),
			zap.Uint64("raffle", header.Index),
			zap.String("actor", header.Actor.ToRaw()),
		)

		if r.options.Sink == nil {
			continue
		}
		if err := r.options.Sink.HandleEvent(ctx, event); err != nil {
			logger.Error("registry: event sink failed", zap.String("name", event.EventName()), zap.Error(err))
		}
	}
}

// committed sums what custody owes in token: escrowed prizes and the
// payments for tickets that can still be withdrawn.
func (r *Registry) committed(token ton.AccountID) uint64 {
	var total uint64
	for _, entry := range r.raffles {
		if entry.prizeToken == token {
			total = addAmount(total, entry.escrowed)
		}
		if entry.ticketToken == token && entry.state != Decided {
			total = addAmount(total, entry.refundable())
		}
	}
	return total
}

// addAmount adds with saturation at the largest uint64.
func addAmount(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}

func mulAmount(quantity, price uint64) (uint64, error) {
	hi, lo := bits.Mul64(quantity, price)
	if hi != 0 {
		return 0, ErrAmountOverflow
	}
	return lo, nil
}

// shareOf computes floor(amount * share / MaxShare) without overflowing.
func shareOf(amount uint64, share uint32) uint64 {
	q, rem := amount/uint64(MaxShare), amount%uint64(MaxShare)
	return q*uint64(share) + rem*uint64(share)/uint64(MaxShare)
}
