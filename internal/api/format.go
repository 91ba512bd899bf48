package api

import (
	"math/big"
	"strconv"
	"time"

	"raffleworld/internal/raffle"

	"github.com/shopspring/decimal"
	"github.com/tonkeeper/tongo/ton"
)

// Amount is a raw token amount alongside its decimal display form.
type Amount struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
}

func (h *Handler) amount(master ton.AccountID, value uint64) Amount {
	var decimals int32
	if jetton, err := h.tokens.Jetton(master); err == nil {
		decimals = jetton.Decimals
	}
	return Amount{
		Raw:     strconv.FormatUint(value, 10),
		Display: decimal.NewFromBigInt(new(big.Int).SetUint64(value), -decimals).String(),
	}
}

type percentageResponse struct {
	Slot  uint32 `json:"slot"`
	Share uint32 `json:"share"`
}

type raffleResponse struct {
	Index        uint64               `json:"index"`
	Name         string               `json:"name"`
	StartDate    time.Time            `json:"startDate"`
	PrizeToken   string               `json:"prizeToken"`
	TicketToken  string               `json:"ticketToken"`
	PrizeAmount  Amount               `json:"prizeAmount"`
	Escrowed     Amount               `json:"escrowed"`
	TicketsLimit uint64               `json:"ticketsLimit"`
	TicketPrice  Amount               `json:"ticketPrice"`
	LockDays     uint32               `json:"lockDays"`
	TicketsSold  uint64               `json:"ticketsSold"`
	HeldTickets  uint64               `json:"heldTickets"`
	Active       bool                 `json:"active"`
	State        string               `json:"state"`
	RequestID    string               `json:"requestId,omitempty"`
	Percentages  []percentageResponse `json:"percentages"`
}

func (h *Handler) raffleResponse(view raffle.RaffleView) raffleResponse {
	response := raffleResponse{
		Index:        view.Index,
		Name:         view.Name,
		StartDate:    view.StartDate.UTC(),
		PrizeToken:   view.PrizeToken.ToRaw(),
		TicketToken:  view.TicketToken.ToRaw(),
		PrizeAmount:  h.amount(view.PrizeToken, view.PrizeAmount),
		Escrowed:     h.amount(view.PrizeToken, view.Escrowed),
		TicketsLimit: view.TicketsLimit,
		TicketPrice:  h.amount(view.TicketToken, view.TicketPrice),
		LockDays:     view.LockDays,
		TicketsSold:  view.TicketsSold,
		HeldTickets:  view.HeldTickets,
		Active:       view.Active,
		State:        view.State.String(),
		Percentages:  []percentageResponse{},
	}
	if !view.RequestID.IsZero() {
		response.RequestID = view.RequestID.String()
	}
	for slot, percentage := range view.Percentages {
		if percentage.Occupied {
			response.Percentages = append(response.Percentages, percentageResponse{Slot: uint32(slot), Share: percentage.Share})
		}
	}
	return response
}

type lotResponse struct {
	Sequence    uint64    `json:"sequence"`
	Quantity    uint64    `json:"quantity"`
	Remaining   uint64    `json:"remaining"`
	UnitPrice   string    `json:"unitPrice"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type positionResponse struct {
	Buyer    string        `json:"buyer"`
	Held     uint64        `json:"held"`
	Unlocked uint64        `json:"unlocked"`
	Lots     []lotResponse `json:"lots"`
}

func positionResponseOf(view raffle.PositionView) positionResponse {
	response := positionResponse{
		Buyer:    view.Buyer.ToRaw(),
		Held:     view.Held,
		Unlocked: view.Unlocked,
		Lots:     make([]lotResponse, 0, len(view.Lots)),
	}
	for _, lot := range view.Lots {
		response.Lots = append(response.Lots, lotResponse{
			Sequence:    lot.Sequence,
			Quantity:    lot.Quantity,
			Remaining:   lot.Remaining,
			UnitPrice:   strconv.FormatUint(lot.UnitPrice, 10),
			PurchasedAt: lot.PurchasedAt.UTC(),
		})
	}
	return response
}
