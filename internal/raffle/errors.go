package raffle

import "errors"

// validation
var (
	ErrInvalidSchedule   = errors.New("raffle: raffle's start date should be in the future")
	ErrInvalidAmount     = errors.New("raffle: raffle's prize amount should be greater than 0")
	ErrInvalidLimit      = errors.New("raffle: raffle's tickets limit should be greater than 0 and not below tickets sold")
	ErrInvalidQuantity   = errors.New("raffle: ticket quantity should be greater than 0")
	ErrAmountOverflow    = errors.New("raffle: token amount overflows")
	ErrInvalidRandomness = errors.New("raffle: random value must be a 256-bit unsigned integer")
)

// authorization
var (
	ErrUnauthorized = errors.New("raffle: caller is not the owner")
)

// state
var (
	ErrNotFound           = errors.New("raffle: raffle does not exist")
	ErrAlreadyCanceled    = errors.New("raffle: raffle is already canceled")
	ErrAlreadyActive      = errors.New("raffle: raffle is already active")
	ErrRaffleCanceled     = errors.New("raffle: this raffle is canceled")
	ErrNotStarted         = errors.New("raffle: the raffle has not started yet")
	ErrSlotNotFound       = errors.New("raffle: percentage slot does not exist")
	ErrSlotOccupied       = errors.New("raffle: percentage slot is already occupied")
	ErrSlotNotOccupied    = errors.New("raffle: the index does not represent an occupied position in the array")
	ErrPercentageExceeded = errors.New("raffle: total percentage should be less or equal with 100")
	ErrDrawPending        = errors.New("raffle: raffle is waiting for randomness")
	ErrAlreadyDecided     = errors.New("raffle: raffle is already decided")
	ErrNoTicketsSold      = errors.New("raffle: raffle has no tickets to draw from")
	ErrUnknownRequest     = errors.New("raffle: unknown randomness request")
)

// resources
var (
	ErrInsufficientPrizeFunding = errors.New("raffle: insufficient tokens for prize pool")
	ErrInsufficientAllowance    = errors.New("raffle: you didn't provide enough tokens for the purchase to be made")
	ErrSoldOut                  = errors.New("raffle: you need to buy less tickets")
	ErrNoTicketsLeft            = errors.New("raffle: no tickets left")
	ErrInsufficientOracleFee    = errors.New("raffle: not enough tokens to pay the randomness fee")
)
