package storage

import (
	"fmt"
	"time"

	"raffleworld/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type GormStorage struct {
	db *gorm.DB
}

func dialector(driver Driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case SqliteDriver:
		return sqlite.Open(dsn), nil
	case MysqlDriver:
		return mysql.Open(dsn), nil
	case PostgresDriver:
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("storage: unsupported driver %q", driver)
}

func NewGormStorage(driver Driver, dsn string) (*GormStorage, error) {
	logger.Debug("initializing database...", zap.String("driver", driver))

	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", driver, err)
	}

	err = db.AutoMigrate(
		&EventRecord{},
		&RandomnessRequestRecord{},
	)
	if err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	logger.Debug("initializing database... done")
	return &GormStorage{
		db: db,
	}, nil
}

func (s *GormStorage) AppendEvents(events []*EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	return s.db.CreateInBatches(events, 100).Error
}

func (s *GormStorage) GetEvents(runID string, raffleIndex uint64, offset int, limit int) ([]*EventRecord, error) {
	var events []*EventRecord
	err := s.db.
		Where("run_id = ? and raffle_index = ?", runID, raffleIndex).
		Order("sequence asc").
		Offset(offset).
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (s *GormStorage) GetLastEventSequence() (uint64, error) {
	var sequence uint64
	err := s.db.Raw(`
		select coalesce(max(sequence), 0) as sequence
		from event_records
	`).Scan(&sequence).Error
	if err != nil {
		return 0, err
	}

	return sequence, nil
}

func (s *GormStorage) UpdateRandomnessRequest(request *RandomnessRequestRecord) error {
	logger.Debug("updating randomness request...", zap.String("request id", request.RequestID), zap.String("status", request.Status))

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "randomness", "fulfilled_at", "updated_at"}),
	}).Create(request).Error
	if err != nil {
		return err
	}

	logger.Debug("updating randomness request... done")
	return nil
}

func (s *GormStorage) GetRandomnessRequest(requestID string) (*RandomnessRequestRecord, error) {
	var request RandomnessRequestRecord
	err := s.db.Where("request_id = ?", requestID).First(&request).Error
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func (s *GormStorage) GetPendingRandomnessRequests() ([]*RandomnessRequestRecord, error) {
	var requests []*RandomnessRequestRecord
	err := s.db.
		Where("status = ?", PendingRequestStatus).
		Order("requested_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// AbandonRandomnessRequests marks pending requests issued by any run other
// than runID as abandoned and returns how many were changed.
func (s *GormStorage) AbandonRandomnessRequests(runID string) (int64, error) {
	result := s.db.Model(&RandomnessRequestRecord{}).
		Where("status = ? and run_id <> ?", PendingRequestStatus, runID).
		Updates(map[string]any{"status": AbandonedRequestStatus, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (s *GormStorage) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
