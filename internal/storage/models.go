package storage

import (
	"time"

	"gorm.io/datatypes"
)

type EventRecord struct {
	ID          string            `gorm:"primaryKey;size:36"`
	Sequence    uint64            `gorm:"uniqueIndex;not null"`
	RunID       string            `gorm:"size:36;index:idx_event_run_raffle;not null"`
	Name        string            `gorm:"size:64;not null"`
	RaffleIndex uint64            `gorm:"index:idx_event_run_raffle;not null"`
	Actor       string            `gorm:"size:80;not null"`
	Attributes  datatypes.JSONMap `gorm:"not null"`
	Payload     string            `gorm:"not null"` // bag of cells, hex
	CreatedAt   time.Time
}

type RandomnessRequestRecord struct {
	RequestID   string        `gorm:"primaryKey;size:64"`
	RunID       string        `gorm:"size:36;index;not null"`
	RaffleIndex uint64        `gorm:"index;not null"`
	Fee         uint64        `gorm:"default:0"`
	Status      RequestStatus `gorm:"size:16;index;not null"`
	Randomness  string        `gorm:"size:80"`
	RequestedAt time.Time
	FulfilledAt *time.Time
	UpdatedAt   time.Time
}
