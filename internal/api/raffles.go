package api

import (
	"net/http"
	"strconv"
	"time"

	"raffleworld/internal/raffle"

	"github.com/gin-gonic/gin"
	"github.com/tonkeeper/tongo/ton"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

func indexParam(c *gin.Context) (uint64, bool) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid raffle index")
		return 0, false
	}
	return index, true
}

func bind(c *gin.Context, request any) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		abort(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) RafflesLength(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"length": h.registry.RafflesLength(),
		"active": h.registry.ActiveRafflesLength(),
	})
}

func (h *Handler) GetRaffle(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	view, err := h.registry.Raffle(index)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.raffleResponse(view))
}

func (h *Handler) GetPosition(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	buyer, err := ton.ParseAccountID(c.Param("address"))
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid address")
		return
	}
	view, err := h.registry.Position(index, buyer)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, positionResponseOf(view))
}

type createRequest struct {
	Name         string    `json:"name"`
	StartDate    time.Time `json:"startDate" binding:"required"`
	PrizeToken   string    `json:"prizeToken" binding:"required"`
	PrizeAmount  uint64    `json:"prizeAmount"`
	TicketsLimit uint64    `json:"ticketsLimit"`
	TicketPrice  uint64    `json:"ticketPrice"`
	LockDays     uint32    `json:"lockDays"`
	TicketToken  string    `json:"ticketToken"`
}

func (h *Handler) CreateRaffle(c *gin.Context) {
	var request createRequest
	if !bind(c, &request) {
		return
	}

	params := raffle.RaffleParams{
		Name:         request.Name,
		StartDate:    request.StartDate,
		PrizeAmount:  request.PrizeAmount,
		TicketsLimit: request.TicketsLimit,
		TicketPrice:  request.TicketPrice,
		LockDays:     request.LockDays,
	}
	var err error
	if params.PrizeToken, err = ton.ParseAccountID(request.PrizeToken); err != nil {
		abort(c, http.StatusBadRequest, "invalid prizeToken")
		return
	}
	if request.TicketToken != "" {
		if params.TicketToken, err = ton.ParseAccountID(request.TicketToken); err != nil {
			abort(c, http.StatusBadRequest, "invalid ticketToken")
			return
		}
	}

	index, err := h.registry.Create(c.Request.Context(), caller(c), params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"index": index})
}

// ownerUpdate binds the body, parses the index and runs one setter.
func ownerUpdate[T any](c *gin.Context, apply func(index uint64, request T) error) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var request T
	if !bind(c, &request) {
		return
	}
	if err := apply(index, request); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name"`
}

type startDateRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

type limitRequest struct {
	Limit uint64 `json:"limit"`
}

type daysRequest struct {
	Days uint32 `json:"days"`
}

func (h *Handler) SetName(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request nameRequest) error {
		return h.registry.SetName(c.Request.Context(), caller(c), index, request.Name)
	})
}

func (h *Handler) SetStartDate(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request startDateRequest) error {
		return h.registry.SetStartDate(c.Request.Context(), caller(c), index, request.StartDate)
	})
}

func (h *Handler) SetPrizeAmount(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request amountRequest) error {
		return h.registry.SetPrizeAmount(c.Request.Context(), caller(c), index, request.Amount)
	})
}

func (h *Handler) SetTicketsLimit(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request limitRequest) error {
		return h.registry.SetTicketsLimit(c.Request.Context(), caller(c), index, request.Limit)
	})
}

func (h *Handler) SetTicketPrice(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request amountRequest) error {
		return h.registry.SetTicketPrice(c.Request.Context(), caller(c), index, request.Amount)
	})
}

func (h *Handler) SetLockDays(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request daysRequest) error {
		return h.registry.SetLockDays(c.Request.Context(), caller(c), index, request.Days)
	})
}

func (h *Handler) ownerAction(c *gin.Context, action func(index uint64) error) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := action(index); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.ownerAction(c, func(index uint64) error {
		return h.registry.Cancel(c.Request.Context(), caller(c), index)
	})
}

func (h *Handler) Activate(c *gin.Context) {
	h.ownerAction(c, func(index uint64) error {
		return h.registry.Activate(c.Request.Context(), caller(c), index)
	})
}

func (h *Handler) Decide(c *gin.Context) {
	h.ownerAction(c, func(index uint64) error {
		return h.registry.Decide(c.Request.Context(), caller(c), index)
	})
}

func slotParam(c *gin.Context) (uint32, bool) {
	slot, err := strconv.ParseUint(c.Param("slot"), 10, 32)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid slot")
		return 0, false
	}
	return uint32(slot), true
}

type shareRequest struct {
	Share uint32 `json:"share"`
}

func (h *Handler) AddPercentage(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	ownerUpdate(c, func(index uint64, request shareRequest) error {
		return h.registry.AddPercentage(c.Request.Context(), caller(c), index, slot, request.Share)
	})
}

func (h *Handler) RemovePercentage(c *gin.Context) {
	slot, ok := slotParam(c)
	if !ok {
		return
	}
	h.ownerAction(c, func(index uint64) error {
		return h.registry.RemovePercentage(c.Request.Context(), caller(c), index, slot)
	})
}

type quantityRequest struct {
	Quantity uint64 `json:"quantity"`
}

func (h *Handler) BuyTickets(c *gin.Context) {
	ownerUpdate(c, func(index uint64, request quantityRequest) error {
		return h.registry.BuyTickets(c.Request.Context(), caller(c), index, request.Quantity)
	})
}

func (h *Handler) WithdrawTickets(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var request quantityRequest
	if !bind(c, &request) {
		return
	}

	withdrawn, err := h.registry.WithdrawTickets(c.Request.Context(), caller(c), index, request.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": withdrawn})
}

func (h *Handler) GetEvents(c *gin.Context) {
	if h.storage == nil {
		abort(c, http.StatusNotFound, "audit log is not configured")
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		abort(c, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultEventsLimit)))
	if err != nil || limit < 1 || limit > maxEventsLimit {
		abort(c, http.StatusBadRequest, "invalid limit")
		return
	}

	records, err := h.storage.GetEvents(h.runID, index, offset, limit)
	if err != nil {
		fail(c, err)
		return
	}

	events := make([]gin.H, 0, len(records))
	for _, record := range records {
		events = append(events, gin.H{
			"id":         record.ID,
			"sequence":   record.Sequence,
			"name":       record.Name,
			"actor":      record.Actor,
			"attributes": record.Attributes,
			"payload":    record.Payload,
			"createdAt":  record.CreatedAt.UTC(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) ServeFeed(c *gin.Context) {
	if h.feed == nil {
		abort(c, http.StatusNotFound, "event feed is not configured")
		return
	}
	h.feed.ServeHTTP(c.Writer, c.Request)
}
