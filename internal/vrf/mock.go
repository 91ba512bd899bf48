package vrf

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"raffleworld/internal/raffle"
)

var ErrNoRequests = errors.New("vrf: no pending requests")

type MockRequest struct {
	ID   raffle.RequestID
	Seed [32]byte
	Fee  uint64
}

// Mock records requests and fulfills them only when told to.
type Mock struct {
	KeyHash [32]byte

	mu       sync.Mutex
	requests []MockRequest
	consumer Consumer
}

func NewMock(keyHash [32]byte) *Mock {
	return &Mock{KeyHash: keyHash}
}

func (m *Mock) Bind(consumer Consumer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumer = consumer
}

func (m *Mock) RequestRandomness(_ context.Context, seed [32]byte, fee uint64) (raffle.RequestID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := requestID(m.KeyHash, seed, uint64(len(m.requests)+1))
	m.requests = append(m.requests, MockRequest{ID: id, Seed: seed, Fee: fee})
	return id, nil
}

func (m *Mock) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockRequest(nil), m.requests...)
}

func (m *Mock) Last() (MockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return MockRequest{}, ErrNoRequests
	}
	return m.requests[len(m.requests)-1], nil
}

func (m *Mock) Fulfill(ctx context.Context, id raffle.RequestID, randomness *big.Int) error {
	m.mu.Lock()
	consumer := m.consumer
	m.mu.Unlock()
	if consumer == nil {
		return errors.New("vrf: no consumer bound")
	}
	return consumer.FulfillRandomness(ctx, id, randomness)
}
