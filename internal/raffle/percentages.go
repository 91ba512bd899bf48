package raffle

import (
	"context"

	"github.com/tonkeeper/tongo/ton"
)

func (r *raffle) checkOpen() error {
	switch r.state {
	case AwaitingRandomness:
		return ErrDrawPending
	case Decided:
		return ErrAlreadyDecided
	}
	return nil
}

// AddPercentage occupies a vacant slot with a share in basis points.
func (r *Registry) AddPercentage(ctx context.Context, caller ton.AccountID, index uint64, slot uint32, share uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpAddPercentage, index)
	if err != nil {
		return err
	}
	if slot >= MaxPercentageSlots {
		return ErrSlotNotFound
	}
	if err := entry.checkOpen(); err != nil {
		return err
	}
	if entry.percentages[slot].Occupied {
		return ErrSlotOccupied
	}
	if share > MaxShare || entry.shareTotal()+share > MaxShare {
		return ErrPercentageExceeded
	}

	entry.percentages[slot] = PercentageSlot{Occupied: true, Share: share}
	r.publish(ctx, AddPercentage{Header: Header{Actor: caller, Index: index}, Slot: slot, Share: share})
	return nil
}

// RemovePercentage vacates a slot; other slots keep their indexes.
func (r *Registry) RemovePercentage(ctx context.Context, caller ton.AccountID, index uint64, slot uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.ownerCall(caller, OpRemovePercentage, index)
	if err != nil {
		return err
	}
	if slot >= MaxPercentageSlots || !entry.percentages[slot].Occupied {
		return ErrSlotNotOccupied
	}
	if err := entry.checkOpen(); err != nil {
		return err
	}

	entry.percentages[slot] = PercentageSlot{}
	r.publish(ctx, RemovePercentage{Header: Header{Actor: caller, Index: index}, Slot: slot})
	return nil
}
