// Package vrf provides randomness oracles for the raffle registry: an
// asynchronous in-process coordinator and a mock fulfilled by hand.
package vrf

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"
	"sync"
	"time"

	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"

	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("vrf: request queue is full")

// Consumer receives fulfilled randomness. *raffle.Registry satisfies it.
type Consumer interface {
	FulfillRandomness(ctx context.Context, id raffle.RequestID, randomness *big.Int) error
}

var maxRandomValue = new(big.Int).Lsh(big.NewInt(1), 256)

var randomValue = func() (*big.Int, error) {
	return rand.Int(rand.Reader, maxRandomValue)
}

type Config struct {
	KeyHash [32]byte
	// Delay is waited before a request is fulfilled.
	Delay       time.Duration
	RetryDelay  time.Duration
	MaxAttempts int
	QueueSize   int
}

type request struct {
	id   raffle.RequestID
	seed [32]byte
	fee  uint64
}

type Coordinator struct {
	config Config
	queue  chan request

	mu       sync.Mutex
	nonce    uint64
	consumer Consumer
}

func NewCoordinator(config Config) *Coordinator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	return &Coordinator{
		config: config,
		queue:  make(chan request, config.QueueSize),
	}
}

// Bind sets the consumer that receives fulfillments. It must be called
// before Run delivers the first request.
func (c *Coordinator) Bind(consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = consumer
}

func (c *Coordinator) RequestRandomness(_ context.Context, seed [32]byte, fee uint64) (raffle.RequestID, error) {
	c.mu.Lock()
	c.nonce++
	id := requestID(c.config.KeyHash, seed, c.nonce)
	c.mu.Unlock()

	select {
	case c.queue <- request{id: id, seed: seed, fee: fee}:
	default:
		return raffle.RequestID{}, ErrQueueFull
	}

	logger.Debug("vrf: randomness requested", zap.String("request id", id.String()), zap.Uint64("fee", fee))
	return id, nil
}

func requestID(keyHash [32]byte, seed [32]byte, nonce uint64) raffle.RequestID {
	buf := make([]byte, 0, 32+32+8)
	buf = append(buf, keyHash[:]...)
	buf = append(buf, seed[:]...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	return raffle.RequestID(sha256.Sum256(buf))
}

// Run fulfills queued requests until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) error {
	logger.Info("vrf: coordinator started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("vrf: coordinator stopped")
			return ctx.Err()
		case req := <-c.queue:
			if !sleep(ctx, c.config.Delay) {
				return ctx.Err()
			}
			c.fulfill(ctx, req)
		}
	}
}

func (c *Coordinator) fulfill(ctx context.Context, req request) {
	c.mu.Lock()
	consumer := c.consumer
	c.mu.Unlock()
	if consumer == nil {
		logger.Error("vrf: no consumer bound, dropping request", zap.String("request id", req.id.String()))
		return
	}

	value, err := randomValue()
	if err != nil {
		logger.Error("vrf: failed to draw random value", zap.String("request id", req.id.String()), zap.Error(err))
		return
	}

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		logger.Debug("vrf: fulfilling request...", zap.String("request id", req.id.String()), zap.Int("attempt", attempt))

		err = consumer.FulfillRandomness(ctx, req.id, value)
		if err == nil {
			logger.Debug("vrf: fulfilling request... done", zap.String("request id", req.id.String()))
			return
		}
		if terminal(err) {
			logger.Warn("vrf: request rejected", zap.String("request id", req.id.String()), zap.Error(err))
			return
		}

		logger.Warn("vrf: fulfillment failed", zap.String("request id", req.id.String()), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < c.config.MaxAttempts && !sleep(ctx, c.config.RetryDelay) {
			return
		}
	}
	logger.Error("vrf: giving up on request", zap.String("request id", req.id.String()), zap.Error(err))
}

func terminal(err error) bool {
	return errors.Is(err, raffle.ErrUnknownRequest) || errors.Is(err, raffle.ErrAlreadyDecided)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
