package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mredag/MPARB/internal/model/event"
)

var ErrNotFound = errors.New("record not found")

// Store persists the audit trail: final message/review state keyed by
// correlation id, plus captured error records.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the messages, reviews and errors tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&messageRow{}, &reviewRow{}, &errorRow{})
}

// Ping verifies the underlying connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("store handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// UpsertMessage writes the message audit record. Re-logging the same
// correlation id updates the stored row instead of duplicating it.
func (s *Store) UpsertMessage(ctx context.Context, ev event.Event) error {
	now := time.Now().UTC()

	var current messageRow
	err := s.db.WithContext(ctx).
		Where("correlation_id = ?", ev.CorrelationID).
		Take(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := messageRowFromEvent(ev, now)
			if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create message: %w", err)
			}
			return nil
		}
		return fmt.Errorf("get message: %w", err)
	}

	row := messageRowFromEvent(ev, now)
	row.CreatedAt = current.CreatedAt
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// UpsertReview writes the review audit record with the same idempotent
// contract as UpsertMessage.
func (s *Store) UpsertReview(ctx context.Context, ev event.Event) error {
	now := time.Now().UTC()

	var current reviewRow
	err := s.db.WithContext(ctx).
		Where("correlation_id = ?", ev.CorrelationID).
		Take(&current).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := reviewRowFromEvent(ev, now)
			if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
				return fmt.Errorf("create review: %w", err)
			}
			return nil
		}
		return fmt.Errorf("get review: %w", err)
	}

	row := reviewRowFromEvent(ev, now)
	row.CreatedAt = current.CreatedAt
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// InsertError appends one error record. Error records are never mutated.
func (s *Store) InsertError(ctx context.Context, rec event.ErrorRecord) error {
	row := errorRowFromRecord(rec)
	if row.OccurredAt.IsZero() {
		row.OccurredAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create error record: %w", err)
	}
	return nil
}

// GetMessage fetches a persisted message by correlation id.
func (s *Store) GetMessage(ctx context.Context, correlationID string) (event.Event, error) {
	var row messageRow
	err := s.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return event.Event{}, ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get message: %w", err)
	}
	return row.toEvent(), nil
}

// GetReview fetches a persisted review by correlation id.
func (s *Store) GetReview(ctx context.Context, correlationID string) (event.Event, error) {
	var row reviewRow
	err := s.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return event.Event{}, ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get review: %w", err)
	}
	return row.toEvent(), nil
}

// CountMessages reports how many message rows exist for a correlation id.
// The idempotent-upsert contract keeps this at most one.
func (s *Store) CountMessages(ctx context.Context, correlationID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&messageRow{}).
		Where("correlation_id = ?", correlationID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// CountErrors reports how many error records exist for a correlation id.
func (s *Store) CountErrors(ctx context.Context, correlationID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&errorRow{}).
		Where("correlation_id = ?", correlationID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count errors: %w", err)
	}
	return count, nil
}
