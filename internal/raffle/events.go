package raffle

import (
	"math/big"
	"strconv"
	"time"

	"github.com/tonkeeper/tongo/ton"
)

// Event is a committed registry change. Events are the audit log of the
// registry and are handed to the EventSink after the call that produced
// them has fully applied.
type Event interface {
	EventName() string
	EventHeader() Header
	Attributes() map[string]string
}

type Header struct {
	Actor ton.AccountID
	Index uint64
}

func (h Header) EventHeader() Header {
	return h
}

const (
	RaffleCreatedEvent         = "RaffleCreated"
	CancelRaffleEvent          = "CancelRaffle"
	ActivateRaffleEvent        = "ActivateRaffle"
	SetRaffleNameEvent         = "SetRaffleName"
	SetRaffleStartDateEvent    = "SetRaffleStartDate"
	SetRafflePrizeAmountEvent  = "SetRafflePrizeAmount"
	SetRaffleTicketsLimitEvent = "SetRaffleTicketsLimit"
	SetRaffleTicketPriceEvent  = "SetRaffleTicketPrice"
	SetRaffleLockDaysEvent     = "SetRaffleLockDays"
	AddPercentageEvent         = "AddPercentage"
	RemovePercentageEvent      = "RemovePercentage"
	BuyTicketsEvent            = "BuyTickets"
	WithdrawTicketsEvent       = "WithdrawTickets"
	RandomnessRequestedEvent   = "RandomnessRequested"
	PrizePaidEvent             = "PrizePaid"
	RaffleDecidedEvent         = "RaffleDecided"
)

type RaffleCreated struct {
	Header
	Name         string
	StartDate    time.Time
	PrizeToken   ton.AccountID
	TicketToken  ton.AccountID
	PrizeAmount  uint64
	TicketsLimit uint64
	TicketPrice  uint64
	LockDays     uint32
}

func (RaffleCreated) EventName() string { return RaffleCreatedEvent }

func (e RaffleCreated) Attributes() map[string]string {
	return map[string]string{
		"name":         e.Name,
		"startDate":    formatTime(e.StartDate),
		"prizeToken":   e.PrizeToken.ToRaw(),
		"ticketToken":  e.TicketToken.ToRaw(),
		"prizeAmount":  formatUint(e.PrizeAmount),
		"ticketsLimit": formatUint(e.TicketsLimit),
		"ticketPrice":  formatUint(e.TicketPrice),
		"lockDays":     formatUint(uint64(e.LockDays)),
	}
}

type CancelRaffle struct{ Header }

func (CancelRaffle) EventName() string { return CancelRaffleEvent }

func (CancelRaffle) Attributes() map[string]string { return map[string]string{} }

type ActivateRaffle struct{ Header }

func (ActivateRaffle) EventName() string { return ActivateRaffleEvent }

func (ActivateRaffle) Attributes() map[string]string { return map[string]string{} }

type SetRaffleName struct {
	Header
	Name string
}

func (SetRaffleName) EventName() string { return SetRaffleNameEvent }

func (e SetRaffleName) Attributes() map[string]string {
	return map[string]string{"name": e.Name}
}

type SetRaffleStartDate struct {
	Header
	StartDate time.Time
}

func (SetRaffleStartDate) EventName() string { return SetRaffleStartDateEvent }

func (e SetRaffleStartDate) Attributes() map[string]string {
	return map[string]string{"startDate": formatTime(e.StartDate)}
}

type SetRafflePrizeAmount struct {
	Header
	PrizeAmount uint64
}

func (SetRafflePrizeAmount) EventName() string { return SetRafflePrizeAmountEvent }

func (e SetRafflePrizeAmount) Attributes() map[string]string {
	return map[string]string{"prizeAmount": formatUint(e.PrizeAmount)}
}

type SetRaffleTicketsLimit struct {
	Header
	TicketsLimit uint64
}

func (SetRaffleTicketsLimit) EventName() string { return SetRaffleTicketsLimitEvent }

func (e SetRaffleTicketsLimit) Attributes() map[string]string {
	return map[string]string{"ticketsLimit": formatUint(e.TicketsLimit)}
}

type SetRaffleTicketPrice struct {
	Header
	TicketPrice uint64
}

func (SetRaffleTicketPrice) EventName() string { return SetRaffleTicketPriceEvent }

func (e SetRaffleTicketPrice) Attributes() map[string]string {
	return map[string]string{"ticketPrice": formatUint(e.TicketPrice)}
}

type SetRaffleLockDays struct {
	Header
	LockDays uint32
}

func (SetRaffleLockDays) EventName() string { return SetRaffleLockDaysEvent }

func (e SetRaffleLockDays) Attributes() map[string]string {
	return map[string]string{"lockDays": formatUint(uint64(e.LockDays))}
}

type AddPercentage struct {
	Header
	Slot  uint32
	Share uint32
}

func (AddPercentage) EventName() string { return AddPercentageEvent }

func (e AddPercentage) Attributes() map[string]string {
	return map[string]string{
		"slot":  formatUint(uint64(e.Slot)),
		"share": formatUint(uint64(e.Share)),
	}
}

type RemovePercentage struct {
	Header
	Slot uint32
}

func (RemovePercentage) EventName() string { return RemovePercentageEvent }

func (e RemovePercentage) Attributes() map[string]string {
	return map[string]string{"slot": formatUint(uint64(e.Slot))}
}

type BuyTickets struct {
	Header
	Quantity uint64
}

func (BuyTickets) EventName() string { return BuyTicketsEvent }

func (e BuyTickets) Attributes() map[string]string {
	return map[string]string{"quantity": formatUint(e.Quantity)}
}

// WithdrawTickets carries the quantity actually withdrawn, which may be
// lower than the requested one.
type WithdrawTickets struct {
	Header
	Quantity uint64
}

func (WithdrawTickets) EventName() string { return WithdrawTicketsEvent }

func (e WithdrawTickets) Attributes() map[string]string {
	return map[string]string{"quantity": formatUint(e.Quantity)}
}

type RandomnessRequested struct {
	Header
	RequestID RequestID
	Fee       uint64
}

func (RandomnessRequested) EventName() string { return RandomnessRequestedEvent }

func (e RandomnessRequested) Attributes() map[string]string {
	return map[string]string{
		"requestId": e.RequestID.String(),
		"fee":       formatUint(e.Fee),
	}
}

// PrizePaid is emitted once per occupied percentage slot; Actor is the winner.
type PrizePaid struct {
	Header
	Slot   uint32
	Ticket uint64
	Amount uint64
}

func (PrizePaid) EventName() string { return PrizePaidEvent }

func (e PrizePaid) Attributes() map[string]string {
	return map[string]string{
		"slot":   formatUint(uint64(e.Slot)),
		"ticket": formatUint(e.Ticket),
		"amount": formatUint(e.Amount),
	}
}

type RaffleDecided struct {
	Header
	RequestID  RequestID
	Randomness *big.Int
	Winners    int
}

func (RaffleDecided) EventName() string { return RaffleDecidedEvent }

func (e RaffleDecided) Attributes() map[string]string {
	randomness := "0"
	if e.Randomness != nil {
		randomness = e.Randomness.String()
	}
	return map[string]string{
		"requestId":  e.RequestID.String(),
		"randomness": randomness,
		"winners":    strconv.Itoa(e.Winners),
	}
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
