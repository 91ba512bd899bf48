package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"raffleworld/internal/blockchain"
	"raffleworld/internal/logger"
	"raffleworld/internal/raffle"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EventSink persists registry events into the audit log and keeps the
// randomness request table in step with the draw. Registry state lives in
// memory, so every sink stamps its records with a fresh run ID and raffle
// indexes are only meaningful within one run.
type EventSink struct {
	storage Storage
	now     func() time.Time
	runID   string

	mu       sync.Mutex
	sequence uint64
}

func NewEventSink(storage Storage) (*EventSink, error) {
	sequence, err := storage.GetLastEventSequence()
	if err != nil {
		return nil, fmt.Errorf("storage: last event sequence: %w", err)
	}

	runID := uuid.NewString()
	abandoned, err := storage.AbandonRandomnessRequests(runID)
	if err != nil {
		return nil, fmt.Errorf("storage: abandon stale requests: %w", err)
	}
	if abandoned > 0 {
		logger.Warn("storage: abandoned randomness requests of a previous run", zap.Int64("count", abandoned))
	}

	return &EventSink{
		storage:  storage,
		now:      time.Now,
		runID:    runID,
		sequence: sequence,
	}, nil
}

func (s *EventSink) RunID() string {
	return s.runID
}

func (s *EventSink) HandleEvent(_ context.Context, event raffle.Event) error {
	payload, err := blockchain.EncodeHex(event)
	if err != nil {
		return err
	}

	attributes := make(datatypes.JSONMap)
	for k, v := range event.Attributes() {
		attributes[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	header := event.EventHeader()
	now := s.now()
	record := &EventRecord{
		ID:          uuid.NewString(),
		Sequence:    s.sequence + 1,
		RunID:       s.runID,
		Name:        event.EventName(),
		RaffleIndex: header.Index,
		Actor:       header.Actor.ToRaw(),
		Attributes:  attributes,
		Payload:     payload,
		CreatedAt:   now,
	}
	if err := s.storage.AppendEvents([]*EventRecord{record}); err != nil {
		return fmt.Errorf("storage: append event: %w", err)
	}
	s.sequence++

	switch e := event.(type) {
	case raffle.RandomnessRequested:
		err = s.storage.UpdateRandomnessRequest(&RandomnessRequestRecord{
			RequestID:   e.RequestID.String(),
			RunID:       s.runID,
			RaffleIndex: e.Index,
			Fee:         e.Fee,
			Status:      PendingRequestStatus,
			RequestedAt: now,
		})
	case raffle.RaffleDecided:
		randomness := ""
		if e.Randomness != nil {
			randomness = e.Randomness.String()
		}
		err = s.storage.UpdateRandomnessRequest(&RandomnessRequestRecord{
			RequestID:   e.RequestID.String(),
			RunID:       s.runID,
			RaffleIndex: e.Index,
			Status:      FulfilledRequestStatus,
			Randomness:  randomness,
			RequestedAt: now,
			FulfilledAt: &now,
		})
	}
	if err != nil {
		return fmt.Errorf("storage: randomness request: %w", err)
	}

	logger.Debug("storage: event persisted", zap.String("name", record.Name), zap.Uint64("sequence", record.Sequence))
	return nil
}
