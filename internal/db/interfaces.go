package db

import (
	"context"

	"cadastre-backend-go/internal/models"
)

// UserRepository reads and merge-patches permission records.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// List returns every record; the collection is small and filtered in memory.
	List(ctx context.Context) ([]*models.User, error)
	// Patch merges fields into the record, creating it when missing.
	Patch(ctx context.Context, userID string, fields map[string]interface{}) error
}

// PreferencesRepository stores per-user map preferences.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	Create(ctx context.Context, prefs *models.Preferences) error
	Patch(ctx context.Context, userID string, fields map[string]interface{}) error
}

// AuditRepository defines the interface for audit log data storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}
