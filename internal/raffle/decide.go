package raffle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"time"

	"raffleworld/internal/logger"

	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

func (r *raffle) await(id RequestID) {
	r.state = AwaitingRandomness
	r.requestID = id
}

// Decide requests randomness for a raffle before it sells out.
func (r *Registry) Decide(ctx context.Context, caller ton.AccountID, index uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpDecide, index)
	if err != nil {
		return err
	}
	if err := entry.checkOpen(); err != nil {
		return err
	}
	if entry.heldTickets() == 0 {
		return ErrNoTicketsSold
	}
	if err := r.checkOracleFee(); err != nil {
		return err
	}

	requested, err := r.requestRandomness(ctx, index, entry.ticketsSold, r.options.Clock.Now())
	if err != nil {
		return err
	}

	entry.await(requested.RequestID)
	r.requests[requested.RequestID] = index
	r.publish(ctx, requested)
	return nil
}

// checkOracleFee requires the fee to be covered by custody funds that no
// raffle has a claim on. It must run before the caller moves tokens into
// custody.
func (r *Registry) checkOracleFee() error {
	if r.options.OracleFee == 0 {
		return nil
	}

	feeLedger, err := r.ledger(r.options.FeeToken)
	if err != nil {
		return fmt.Errorf("fee token: %w", err)
	}
	balance := feeLedger.BalanceOf(r.options.Custody)
	committed := r.committed(r.options.FeeToken)
	if balance < committed || balance-committed < r.options.OracleFee {
		return ErrInsufficientOracleFee
	}
	return nil
}

// requestRandomness issues the oracle request and pays the fee. It does not
// touch raffle state; the caller records the request once its own effects
// are certain.
func (r *Registry) requestRandomness(ctx context.Context, index uint64, ticketsSold uint64, now time.Time) (RandomnessRequested, error) {
	logger.Debug("registry: requesting randomness...", zap.Uint64("raffle", index))

	seed := randomnessSeed(r.options.KeyHash, index, ticketsSold, now)
	id, err := r.options.Oracle.RequestRandomness(ctx, seed, r.options.OracleFee)
	if err != nil {
		return RandomnessRequested{}, fmt.Errorf("request randomness: %w", err)
	}
	if _, exists := r.requests[id]; exists {
		return RandomnessRequested{}, fmt.Errorf("request randomness: duplicate request id %s", id)
	}

	if r.options.OracleFee > 0 {
		feeLedger, err := r.ledger(r.options.FeeToken)
		if err != nil {
			return RandomnessRequested{}, fmt.Errorf("fee token: %w", err)
		}
		if err := feeLedger.Transfer(r.options.Custody, r.options.OracleAccount, r.options.OracleFee); err != nil {
			return RandomnessRequested{}, fmt.Errorf("%w: %v", ErrInsufficientOracleFee, err)
		}
	}

	logger.Debug("registry: requesting randomness... done", zap.Uint64("raffle", index), zap.String("request id", id.String()))
	return RandomnessRequested{
		Header:    Header{Actor: r.options.Custody, Index: index},
		RequestID: id,
		Fee:       r.options.OracleFee,
	}, nil
}

func randomnessSeed(keyHash [32]byte, index uint64, ticketsSold uint64, now time.Time) [32]byte {
	buf := make([]byte, 0, 32+8+8+8)
	buf = append(buf, keyHash[:]...)
	buf = binary.BigEndian.AppendUint64(buf, index)
	buf = binary.BigEndian.AppendUint64(buf, ticketsSold)
	buf = binary.BigEndian.AppendUint64(buf, uint64(now.UnixNano()))
	return sha256.Sum256(buf)
}

// FulfillRandomness is the oracle callback. It draws one winning ticket per
// occupied percentage slot and pays each winner its share of the prize.
func (r *Registry) FulfillRandomness(ctx context.Context, id RequestID, randomness *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, ok := r.requests[id]
	if !ok {
		logger.Warn("registry: unknown randomness request", zap.String("request id", id.String()))
		return ErrUnknownRequest
	}
	entry := r.raffles[index]
	if entry.state == Decided {
		return ErrAlreadyDecided
	}
	if randomness == nil || randomness.Sign() < 0 || randomness.BitLen() > 256 {
		return ErrInvalidRandomness
	}

	logger.Debug("registry: deciding raffle...", zap.Uint64("raffle", index), zap.String("request id", id.String()))

	prizeLedger, err := r.ledger(entry.prizeToken)
	if err != nil {
		return err
	}

	table := entry.ticketTable()
	base := min(entry.prizeAmount, entry.escrowed)

	var (
		events []Event
		paid   uint64
	)
	type payout struct {
		winner ton.AccountID
		amount uint64
	}
	var payouts []payout

	if table.total > 0 {
		for slot, percentage := range entry.percentages {
			if !percentage.Occupied {
				continue
			}

			ticket := winningTicket(randomness, uint32(slot), table.total)
			winner := table.owner(ticket)
			amount := shareOf(base, percentage.Share)

			payouts = append(payouts, payout{winner: winner, amount: amount})
			paid += amount
			events = append(events, PrizePaid{
				Header: Header{Actor: winner, Index: index},
				Slot:   uint32(slot),
				Ticket: ticket,
				Amount: amount,
			})
		}
	}

	if prizeLedger.BalanceOf(r.options.Custody) < paid {
		return fmt.Errorf("pay prize: custody holds less than %d", paid)
	}
	for i, p := range payouts {
		if p.amount == 0 {
			continue
		}
		if err := prizeLedger.Transfer(r.options.Custody, p.winner, p.amount); err != nil {
			// Undo the payouts already made so the call has no effect.
			for _, done := range payouts[:i] {
				if done.amount == 0 {
					continue
				}
				if undoErr := prizeLedger.Transfer(done.winner, r.options.Custody, done.amount); undoErr != nil {
					logger.Error("registry: payout rollback failed", zap.Uint64("raffle", index), zap.Error(undoErr))
				}
			}
			return fmt.Errorf("pay prize: %w", err)
		}
	}

	entry.escrowed -= paid
	entry.state = Decided
	events = append(events, RaffleDecided{
		Header:     Header{Actor: r.options.OracleAccount, Index: index},
		RequestID:  id,
		Randomness: new(big.Int).Set(randomness),
		Winners:    len(payouts),
	})

	r.publish(ctx, events...)
	logger.Info("registry: raffle decided", zap.Uint64("raffle", index), zap.Int("winners", len(payouts)), zap.Uint64("paid", paid))
	return nil
}

// winningTicket derives an independent ticket number per slot from a single
// random value.
func winningTicket(randomness *big.Int, slot uint32, total uint64) uint64 {
	buf := make([]byte, 36)
	randomness.FillBytes(buf[:32])
	binary.BigEndian.PutUint32(buf[32:], slot)
	sum := sha256.Sum256(buf)

	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, new(big.Int).SetUint64(total)).Uint64()
}

type ticketRange struct {
	buyer         ton.AccountID
	sequence      uint64
	cumulativeSum uint64
}

type ticketTable struct {
	ranges []ticketRange
	total  uint64
}

// ticketTable lists every held ticket in purchase order so a ticket number
// maps back to its owner.
func (r *raffle) ticketTable() ticketTable {
	var ranges []ticketRange
	for _, buyer := range r.buyers {
		for _, lot := range r.positions[buyer].Lots {
			if lot.Remaining == 0 {
				continue
			}
			ranges = append(ranges, ticketRange{buyer: buyer, sequence: lot.Sequence, cumulativeSum: lot.Remaining})
		}
	}

	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].sequence < ranges[j].sequence
	})

	var total uint64
	for i := range ranges {
		total += ranges[i].cumulativeSum
		ranges[i].cumulativeSum = total
	}
	return ticketTable{ranges: ranges, total: total}
}

func (t ticketTable) owner(ticket uint64) ton.AccountID {
	target := ticket + 1
	idx := sort.Search(len(t.ranges), func(i int) bool {
		return t.ranges[i].cumulativeSum >= target
	})
	return t.ranges[idx].buyer
}
