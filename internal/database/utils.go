package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SavePredictionLog persists one prediction record. A failure to write
// the log must not fail the request that produced it, so errors are
// logged and swallowed.
func SavePredictionLog(ctx context.Context, db *gorm.DB, entry *PredictionLog) {
	if entry.Id == uuid.Nil {
		entry.Id = uuid.New()
	}
	if entry.CreationTime.IsZero() {
		entry.CreationTime = time.Now().UTC()
	}

	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		slog.Error("error saving prediction log", "id", entry.Id, "error", err)
	}
}

// RecentPredictions returns up to limit records, newest first.
func RecentPredictions(ctx context.Context, db *gorm.DB, limit int) ([]PredictionLog, error) {
	var entries []PredictionLog
	if err := db.WithContext(ctx).
		Order("creation_time DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
