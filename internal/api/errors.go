package api

import (
	"errors"
	"net/http"

	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"
	"raffleworld/internal/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var statusByError = []struct {
	err    error
	status int
}{
	{raffle.ErrNotFound, http.StatusNotFound},
	{raffle.ErrUnknownRequest, http.StatusNotFound},
	{token.ErrUnknownToken, http.StatusNotFound},
	{gorm.ErrRecordNotFound, http.StatusNotFound},

	{raffle.ErrUnauthorized, http.StatusForbidden},

	{raffle.ErrInvalidSchedule, http.StatusBadRequest},
	{raffle.ErrInvalidAmount, http.StatusBadRequest},
	{raffle.ErrInvalidLimit, http.StatusBadRequest},
	{raffle.ErrInvalidQuantity, http.StatusBadRequest},
	{raffle.ErrAmountOverflow, http.StatusBadRequest},
	{raffle.ErrSlotNotFound, http.StatusBadRequest},
	{raffle.ErrInvalidRandomness, http.StatusBadRequest},

	{raffle.ErrAlreadyCanceled, http.StatusConflict},
	{raffle.ErrAlreadyActive, http.StatusConflict},
	{raffle.ErrRaffleCanceled, http.StatusConflict},
	{raffle.ErrNotStarted, http.StatusConflict},
	{raffle.ErrSlotOccupied, http.StatusConflict},
	{raffle.ErrSlotNotOccupied, http.StatusConflict},
	{raffle.ErrPercentageExceeded, http.StatusConflict},
	{raffle.ErrDrawPending, http.StatusConflict},
	{raffle.ErrAlreadyDecided, http.StatusConflict},
	{raffle.ErrNoTicketsSold, http.StatusConflict},

	{raffle.ErrInsufficientPrizeFunding, http.StatusUnprocessableEntity},
	{raffle.ErrInsufficientAllowance, http.StatusUnprocessableEntity},
	{raffle.ErrSoldOut, http.StatusUnprocessableEntity},
	{raffle.ErrNoTicketsLeft, http.StatusUnprocessableEntity},
	{raffle.ErrInsufficientOracleFee, http.StatusUnprocessableEntity},
	{token.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{token.ErrInsufficientAllowance, http.StatusUnprocessableEntity},
}

func statusOf(err error) int {
	for _, entry := range statusByError {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("api: request failed", zap.String("path", c.FullPath()), zap.String("request id", c.GetString(requestIDKey)), zap.Error(err))
	}
	abort(c, status, err.Error())
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "requestId": c.GetString(requestIDKey)})
}
