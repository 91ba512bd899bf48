package api

import (
	"math/big"
	"net/http"

	"raffleworld/internal/raffle"

	"github.com/gin-gonic/gin"
)

func (h *Handler) PendingRequests(c *gin.Context) {
	if h.storage == nil {
		abort(c, http.StatusNotFound, "audit log is not configured")
		return
	}
	records, err := h.storage.GetPendingRandomnessRequests()
	if err != nil {
		fail(c, err)
		return
	}

	requests := make([]gin.H, 0, len(records))
	for _, record := range records {
		requests = append(requests, gin.H{
			"requestId":   record.RequestID,
			"raffleIndex": record.RaffleIndex,
			"fee":         record.Fee,
			"status":      record.Status,
			"requestedAt": record.RequestedAt.UTC(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

type fulfillRequest struct {
	RequestID string `json:"requestId" binding:"required"`
	// Randomness is a decimal string so 256-bit values survive JSON.
	Randomness string `json:"randomness" binding:"required"`
}

// Fulfill delivers randomness through the mock oracle. It is only routed
// when the server runs without an automatic coordinator.
func (h *Handler) Fulfill(c *gin.Context) {
	if h.fulfiller == nil {
		abort(c, http.StatusNotFound, "manual fulfillment is disabled")
		return
	}
	var request fulfillRequest
	if !bind(c, &request) {
		return
	}

	id, err := raffle.ParseRequestID(request.RequestID)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid requestId")
		return
	}
	randomness, ok := new(big.Int).SetString(request.Randomness, 10)
	if !ok {
		abort(c, http.StatusBadRequest, "randomness must be a decimal integer")
		return
	}

	if err := h.fulfiller.Fulfill(c.Request.Context(), id, randomness); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
