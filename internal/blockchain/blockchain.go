// Package blockchain encodes registry events as TL-B cells, the message
// layout a raffle contract on TON would emit for the same change.
//
// Every event starts with a 32-bit opcode, the actor address and the
// raffle index as uint64. The payload follows; fields that do not fit in
// the root cell go into references.
package blockchain

import (
	"errors"

	"raffleworld/internal/raffle"
)

const (
	OpRaffleCreated         uint64 = 0x13370001
	OpCancelRaffle          uint64 = 0x13370002
	OpActivateRaffle        uint64 = 0x13370003
	OpSetRaffleName         uint64 = 0x13370004
	OpSetRaffleStartDate    uint64 = 0x13370005
	OpSetRafflePrizeAmount  uint64 = 0x13370006
	OpSetRaffleTicketsLimit uint64 = 0x13370007
	OpSetRaffleTicketPrice  uint64 = 0x13370008
	OpSetRaffleLockDays     uint64 = 0x13370009
	OpAddPercentage         uint64 = 0x13370010
	OpRemovePercentage      uint64 = 0x13370011
	OpBuyTickets            uint64 = 0x13370012
	OpWithdrawTickets       uint64 = 0x13370013
	OpRandomnessRequested   uint64 = 0x13370014
	OpPrizePaid             uint64 = 0x13370015
	OpRaffleDecided         uint64 = 0x13370016
)

// MaxNameBytes bounds the encoded raffle name; longer names are cut.
const MaxNameBytes = 64

var (
	ErrUnknownEvent  = errors.New("blockchain: unknown event")
	ErrUnknownOpcode = errors.New("blockchain: unknown opcode")
)

var opcodes = map[string]uint64{
	raffle.RaffleCreatedEvent:         OpRaffleCreated,
	raffle.CancelRaffleEvent:          OpCancelRaffle,
	raffle.ActivateRaffleEvent:        OpActivateRaffle,
	raffle.SetRaffleNameEvent:         OpSetRaffleName,
	raffle.SetRaffleStartDateEvent:    OpSetRaffleStartDate,
	raffle.SetRafflePrizeAmountEvent:  OpSetRafflePrizeAmount,
	raffle.SetRaffleTicketsLimitEvent: OpSetRaffleTicketsLimit,
	raffle.SetRaffleTicketPriceEvent:  OpSetRaffleTicketPrice,
	raffle.SetRaffleLockDaysEvent:     OpSetRaffleLockDays,
	raffle.AddPercentageEvent:         OpAddPercentage,
	raffle.RemovePercentageEvent:      OpRemovePercentage,
	raffle.BuyTicketsEvent:            OpBuyTickets,
	raffle.WithdrawTicketsEvent:       OpWithdrawTickets,
	raffle.RandomnessRequestedEvent:   OpRandomnessRequested,
	raffle.PrizePaidEvent:             OpPrizePaid,
	raffle.RaffleDecidedEvent:         OpRaffleDecided,
}

// Opcode returns the opcode of an event name.
func Opcode(name string) (uint64, bool) {
	op, ok := opcodes[name]
	return op, ok
}
