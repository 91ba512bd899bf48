package blockchain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"raffleworld/internal/raffle"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// Encode serializes an event into a cell.
func Encode(event raffle.Event) (*boc.Cell, error) {
	op, ok := Opcode(event.EventName())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, event.EventName())
	}

	cell := boc.NewCell()
	header := event.EventHeader()
	if err := cell.WriteUint(op, 32); err != nil {
		return nil, err
	}
	if err := tlb.Marshal(cell, header.Actor.ToMsgAddress()); err != nil {
		return nil, err
	}
	if err := cell.WriteUint(header.Index, 64); err != nil {
		return nil, err
	}

	if err := encodePayload(cell, event); err != nil {
		return nil, fmt.Errorf("encode %s: %w", event.EventName(), err)
	}
	return cell, nil
}

// EncodeHex returns the event as a hex encoded bag of cells.
func EncodeHex(event raffle.Event) (string, error) {
	cell, err := Encode(event)
	if err != nil {
		return "", err
	}
	b, err := cell.ToBoc()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func encodePayload(cell *boc.Cell, event raffle.Event) error {
	switch e := event.(type) {
	case raffle.RaffleCreated:
		if err := writeTime(cell, e.StartDate); err != nil {
			return err
		}
		if err := writeGrams(cell, e.PrizeAmount); err != nil {
			return err
		}
		if err := cell.WriteUint(e.TicketsLimit, 64); err != nil {
			return err
		}
		if err := writeGrams(cell, e.TicketPrice); err != nil {
			return err
		}
		if err := cell.WriteUint(uint64(e.LockDays), 32); err != nil {
			return err
		}

		tokens := boc.NewCell()
		if err := tlb.Marshal(tokens, e.PrizeToken.ToMsgAddress()); err != nil {
			return err
		}
		if err := tlb.Marshal(tokens, e.TicketToken.ToMsgAddress()); err != nil {
			return err
		}
		if err := cell.AddRef(tokens); err != nil {
			return err
		}

		name := boc.NewCell()
		if err := writeString(name, e.Name); err != nil {
			return err
		}
		return cell.AddRef(name)
	case raffle.CancelRaffle, raffle.ActivateRaffle:
		return nil
	case raffle.SetRaffleName:
		return writeString(cell, e.Name)
	case raffle.SetRaffleStartDate:
		return writeTime(cell, e.StartDate)
	case raffle.SetRafflePrizeAmount:
		return writeGrams(cell, e.PrizeAmount)
	case raffle.SetRaffleTicketsLimit:
		return cell.WriteUint(e.TicketsLimit, 64)
	case raffle.SetRaffleTicketPrice:
		return writeGrams(cell, e.TicketPrice)
	case raffle.SetRaffleLockDays:
		return cell.WriteUint(uint64(e.LockDays), 32)
	case raffle.AddPercentage:
		if err := cell.WriteUint(uint64(e.Slot), 32); err != nil {
			return err
		}
		return cell.WriteUint(uint64(e.Share), 32)
	case raffle.RemovePercentage:
		return cell.WriteUint(uint64(e.Slot), 32)
	case raffle.BuyTickets:
		return cell.WriteUint(e.Quantity, 64)
	case raffle.WithdrawTickets:
		return cell.WriteUint(e.Quantity, 64)
	case raffle.RandomnessRequested:
		if err := writeBytes(cell, e.RequestID[:]); err != nil {
			return err
		}
		return writeGrams(cell, e.Fee)
	case raffle.PrizePaid:
		if err := cell.WriteUint(uint64(e.Slot), 32); err != nil {
			return err
		}
		if err := cell.WriteUint(e.Ticket, 64); err != nil {
			return err
		}
		return writeGrams(cell, e.Amount)
	case raffle.RaffleDecided:
		if err := writeBytes(cell, e.RequestID[:]); err != nil {
			return err
		}
		var randomness [32]byte
		if e.Randomness != nil {
			e.Randomness.FillBytes(randomness[:])
		}
		if err := writeBytes(cell, randomness[:]); err != nil {
			return err
		}
		return cell.WriteUint(uint64(e.Winners), 16)
	}
	return fmt.Errorf("%w: %T", ErrUnknownEvent, event)
}

// Decode parses a cell produced by Encode.
func Decode(cell *boc.Cell) (raffle.Event, error) {
	op, err := cell.ReadUint(32)
	if err != nil {
		return nil, err
	}
	actor, err := readAddress(cell)
	if err != nil {
		return nil, fmt.Errorf("read actor: %w", err)
	}
	index, err := cell.ReadUint(64)
	if err != nil {
		return nil, err
	}
	header := raffle.Header{Actor: actor, Index: index}

	switch op {
	case OpRaffleCreated:
		e := raffle.RaffleCreated{Header: header}
		if e.StartDate, err = readTime(cell); err != nil {
			return nil, err
		}
		if e.PrizeAmount, err = readGrams(cell); err != nil {
			return nil, err
		}
		if e.TicketsLimit, err = cell.ReadUint(64); err != nil {
			return nil, err
		}
		if e.TicketPrice, err = readGrams(cell); err != nil {
			return nil, err
		}
		lockDays, err := cell.ReadUint(32)
		if err != nil {
			return nil, err
		}
		e.LockDays = uint32(lockDays)

		tokens, err := cell.NextRef()
		if err != nil {
			return nil, err
		}
		if e.PrizeToken, err = readAddress(tokens); err != nil {
			return nil, err
		}
		if e.TicketToken, err = readAddress(tokens); err != nil {
			return nil, err
		}
		name, err := cell.NextRef()
		if err != nil {
			return nil, err
		}
		if e.Name, err = readString(name); err != nil {
			return nil, err
		}
		return e, nil
	case OpCancelRaffle:
		return raffle.CancelRaffle{Header: header}, nil
	case OpActivateRaffle:
		return raffle.ActivateRaffle{Header: header}, nil
	case OpSetRaffleName:
		name, err := readString(cell)
		return raffle.SetRaffleName{Header: header, Name: name}, err
	case OpSetRaffleStartDate:
		startDate, err := readTime(cell)
		return raffle.SetRaffleStartDate{Header: header, StartDate: startDate}, err
	case OpSetRafflePrizeAmount:
		amount, err := readGrams(cell)
		return raffle.SetRafflePrizeAmount{Header: header, PrizeAmount: amount}, err
	case OpSetRaffleTicketsLimit:
		limit, err := cell.ReadUint(64)
		return raffle.SetRaffleTicketsLimit{Header: header, TicketsLimit: limit}, err
	case OpSetRaffleTicketPrice:
		price, err := readGrams(cell)
		return raffle.SetRaffleTicketPrice{Header: header, TicketPrice: price}, err
	case OpSetRaffleLockDays:
		days, err := cell.ReadUint(32)
		return raffle.SetRaffleLockDays{Header: header, LockDays: uint32(days)}, err
	case OpAddPercentage:
		slot, err := cell.ReadUint(32)
		if err != nil {
			return nil, err
		}
		share, err := cell.ReadUint(32)
		return raffle.AddPercentage{Header: header, Slot: uint32(slot), Share: uint32(share)}, err
	case OpRemovePercentage:
		slot, err := cell.ReadUint(32)
		return raffle.RemovePercentage{Header: header, Slot: uint32(slot)}, err
	case OpBuyTickets:
		quantity, err := cell.ReadUint(64)
		return raffle.BuyTickets{Header: header, Quantity: quantity}, err
	case OpWithdrawTickets:
		quantity, err := cell.ReadUint(64)
		return raffle.WithdrawTickets{Header: header, Quantity: quantity}, err
	case OpRandomnessRequested:
		e := raffle.RandomnessRequested{Header: header}
		if err := readBytes(cell, e.RequestID[:]); err != nil {
			return nil, err
		}
		e.Fee, err = readGrams(cell)
		return e, err
	case OpPrizePaid:
		slot, err := cell.ReadUint(32)
		if err != nil {
			return nil, err
		}
		ticket, err := cell.ReadUint(64)
		if err != nil {
			return nil, err
		}
		amount, err := readGrams(cell)
		return raffle.PrizePaid{Header: header, Slot: uint32(slot), Ticket: ticket, Amount: amount}, err
	case OpRaffleDecided:
		e := raffle.RaffleDecided{Header: header}
		if err := readBytes(cell, e.RequestID[:]); err != nil {
			return nil, err
		}
		var randomness [32]byte
		if err := readBytes(cell, randomness[:]); err != nil {
			return nil, err
		}
		e.Randomness = new(big.Int).SetBytes(randomness[:])
		winners, err := cell.ReadUint(16)
		e.Winners = int(winners)
		return e, err
	}
	return nil, fmt.Errorf("%w: 0x%x", ErrUnknownOpcode, op)
}

// DecodeHex parses a hex encoded bag of cells produced by EncodeHex.
func DecodeHex(s string) (raffle.Event, error) {
	cells, err := boc.DeserializeBocHex(s)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, errors.New("blockchain: empty bag of cells")
	}
	return Decode(cells[0])
}

func readAddress(cell *boc.Cell) (ton.AccountID, error) {
	var address tlb.MsgAddress
	if err := tlb.Unmarshal(cell, &address); err != nil {
		return ton.AccountID{}, err
	}
	accountID, err := tongo.AccountIDFromTlb(address)
	if err != nil {
		return ton.AccountID{}, err
	}
	if accountID == nil {
		return ton.AccountID{}, nil
	}
	return *accountID, nil
}

func writeGrams(cell *boc.Cell, amount uint64) error {
	return tlb.Marshal(cell, tlb.Grams(amount))
}

func readGrams(cell *boc.Cell) (uint64, error) {
	var amount tlb.Grams
	if err := tlb.Unmarshal(cell, &amount); err != nil {
		return 0, err
	}
	return uint64(amount), nil
}

func writeTime(cell *boc.Cell, t time.Time) error {
	return cell.WriteUint(uint64(t.Unix()), 64)
}

func readTime(cell *boc.Cell) (time.Time, error) {
	v, err := cell.ReadUint(64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(v), 0).UTC(), nil
}

func writeBytes(cell *boc.Cell, b []byte) error {
	for _, c := range b {
		if err := cell.WriteUint(uint64(c), 8); err != nil {
			return err
		}
	}
	return nil
}

func readBytes(cell *boc.Cell, dst []byte) error {
	for i := range dst {
		c, err := cell.ReadUint(8)
		if err != nil {
			return err
		}
		dst[i] = byte(c)
	}
	return nil
}

// writeString stores a length-prefixed string cut to MaxNameBytes on a
// rune boundary.
func writeString(cell *boc.Cell, s string) error {
	s = truncate(s, MaxNameBytes)
	if err := cell.WriteUint(uint64(len(s)), 8); err != nil {
		return err
	}
	return writeBytes(cell, []byte(s))
}

func readString(cell *boc.Cell) (string, error) {
	n, err := cell.ReadUint(8)
	if err != nil {
		return "", err
	}
	if n > MaxNameBytes {
		return "", fmt.Errorf("blockchain: string length %d exceeds %d", n, MaxNameBytes)
	}
	b := make([]byte, n)
	if err := readBytes(cell, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
