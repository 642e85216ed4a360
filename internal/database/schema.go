package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PredictionLog records one /predict call, successful or not. It backs
// the /logs endpoint and the dashboard history table.
type PredictionLog struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Filename  string
	SizeBytes int64

	TopLabel   string
	Confidence float64
	// Full ranked result as returned to the caller.
	Result datatypes.JSON

	Success bool `gorm:"not null"`
	Error   string

	LatencyMs    int64
	CreationTime time.Time `gorm:"index"`
}
