// Package api exposes the raffle registry over HTTP.
package api

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"
	"raffleworld/internal/storage"
	"raffleworld/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

const (
	CallerHeader    = "X-Account-Id"
	RequestIDHeader = "X-Request-Id"

	callerKey    = "caller"
	requestIDKey = "requestId"
)

// Fulfiller delivers randomness by hand; vrf.Mock implements it.
type Fulfiller interface {
	Fulfill(ctx context.Context, id raffle.RequestID, randomness *big.Int) error
}

type Options struct {
	Registry *raffle.Registry
	Tokens   *token.Directory
	// Storage, Feed and Fulfiller are optional; their routes answer 404
	// when unset.
	Storage   storage.Storage
	Feed      http.Handler
	Fulfiller Fulfiller
	// RunID scopes audit log queries to the current registry.
	RunID string
}

type Handler struct {
	registry  *raffle.Registry
	tokens    *token.Directory
	storage   storage.Storage
	feed      http.Handler
	fulfiller Fulfiller
	runID     string
}

func NewHandler(options Options) *Handler {
	return &Handler{
		registry:  options.Registry,
		tokens:    options.Tokens,
		storage:   options.Storage,
		feed:      options.Feed,
		fulfiller: options.Fulfiller,
		runID:     options.RunID,
	}
}

// NewRouter builds a gin engine with request IDs, access logging and every
// route registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog())
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/raffles", h.RafflesLength)
	router.GET("/raffles/:index", h.GetRaffle)
	router.GET("/raffles/:index/positions/:address", h.GetPosition)
	router.GET("/raffles/:index/events", h.GetEvents)
	router.GET("/tokens", h.ListTokens)
	router.GET("/tokens/:master/balances/:holder", h.GetBalance)
	router.GET("/oracle/requests", h.PendingRequests)
	router.GET("/events/ws", h.ServeFeed)

	caller := router.Group("/", requireCaller())
	caller.POST("/raffles", h.CreateRaffle)
	caller.PUT("/raffles/:index/name", h.SetName)
	caller.PUT("/raffles/:index/start-date", h.SetStartDate)
	caller.PUT("/raffles/:index/prize-amount", h.SetPrizeAmount)
	caller.PUT("/raffles/:index/tickets-limit", h.SetTicketsLimit)
	caller.PUT("/raffles/:index/ticket-price", h.SetTicketPrice)
	caller.PUT("/raffles/:index/lock-days", h.SetLockDays)
	caller.POST("/raffles/:index/cancel", h.Cancel)
	caller.POST("/raffles/:index/activate", h.Activate)
	caller.POST("/raffles/:index/decide", h.Decide)
	caller.PUT("/raffles/:index/percentages/:slot", h.AddPercentage)
	caller.DELETE("/raffles/:index/percentages/:slot", h.RemovePercentage)
	caller.POST("/raffles/:index/tickets", h.BuyTickets)
	caller.POST("/raffles/:index/tickets/withdraw", h.WithdrawTickets)
	caller.POST("/tokens/:master/approve", h.Approve)

	router.POST("/oracle/fulfill", h.Fulfill)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("api: request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request id", c.GetString(requestIDKey)),
		)
	}
}

// requireCaller resolves the calling account from the X-Account-Id header.
func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(CallerHeader)
		if header == "" {
			abort(c, http.StatusUnauthorized, "missing "+CallerHeader+" header")
			return
		}
		accountID, err := ton.ParseAccountID(header)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid "+CallerHeader+" header: "+err.Error())
			return
		}
		c.Set(callerKey, accountID)
		c.Next()
	}
}

func caller(c *gin.Context) ton.AccountID {
	return c.MustGet(callerKey).(ton.AccountID)
}
