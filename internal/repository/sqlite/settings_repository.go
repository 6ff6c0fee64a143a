package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"hazardcam/internal/model"
)

// SettingsRepository implements repository.SettingsRepository for SQLite.
// There is a single settings row.
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new SQLite settings repository.
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load returns the saved settings, or nil if none were saved yet.
func (r *SettingsRepository) Load() (*model.Settings, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var hazards string
	var settings model.Settings
	err := r.db.Conn().QueryRow(`
		SELECT hazards, mute, text_size FROM settings WHERE id = 1
	`).Scan(&hazards, &settings.Mute, &settings.TextSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings.HazardLabels = []string{}
	for _, label := range strings.Split(hazards, "\n") {
		if label != "" {
			settings.HazardLabels = append(settings.HazardLabels, label)
		}
	}
	return &settings, nil
}

// Save overwrites the settings row.
func (r *SettingsRepository) Save(settings *model.Settings) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO settings (id, hazards, mute, text_size, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			hazards = excluded.hazards,
			mute = excluded.mute,
			text_size = excluded.text_size,
			updated_at = excluded.updated_at
	`, strings.Join(settings.HazardLabels, "\n"), settings.Mute, settings.TextSize)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
