package repository

import (
	"time"

	"hazardcam/internal/model"
)

// AlertRepository defines the interface for alert history operations.
type AlertRepository interface {
	// Create operations
	Insert(alert *model.Alert) (int64, error)
	InsertBatch(alerts []model.Alert) error

	// Read operations
	GetRecent(limit int) ([]model.Alert, error)
	CountByLabel() (map[string]int, error)

	// Delete operations
	DeleteAll() error
}

// SessionRepository records connection lifetimes with the detection service.
type SessionRepository interface {
	Begin(clientID, endpoint string, at time.Time) (int64, error)
	End(id int64, at time.Time) error
	GetRecent(limit int) ([]model.Session, error)
	// CloseDangling marks sessions left open by a crash as ended at the given time.
	CloseDangling(at time.Time) (int64, error)
}

// SettingsRepository persists user preferences.
type SettingsRepository interface {
	// Load returns nil without error when nothing has been saved yet.
	Load() (*model.Settings, error)
	Save(settings *model.Settings) error
}
