package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/models"
)

var (
	// ErrNotFound is returned when a habit, vacation or meta key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmbeddedCredentials rejects PostgreSQL connection strings carrying a password.
	ErrEmbeddedCredentials = errors.New("connection string must not contain a password")
)

// Meta keys
const (
	MetaLastSync = "last_sync"
)

// EncodeHabit serializes a habit for the data column.
func EncodeHabit(h models.Habit) (string, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to encode habit %s: %w", h.ID, err)
	}
	return string(data), nil
}

func DecodeHabit(data []byte) (models.Habit, error) {
	var h models.Habit
	if err := json.Unmarshal(data, &h); err != nil {
		return models.Habit{}, fmt.Errorf("failed to decode habit: %w", err)
	}
	if h.Completions == nil {
		h.Completions = map[string]models.CompletionValue{}
	}
	return h, nil
}

// EncodeOp serializes a queued operation's payload. Deletes have none.
func EncodeOp(op models.QueueOp) (*string, error) {
	if op.Payload == nil {
		return nil, nil
	}
	s, err := EncodeHabit(*op.Payload)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateHabit rejects records the stores cannot index.
func ValidateHabit(h models.Habit) error {
	if strings.TrimSpace(h.ID) == "" {
		return errors.New("habit id is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("habit %s has no name", h.ID)
	}
	return nil
}

// IsPostgres reports whether dsn is a PostgreSQL connection string rather
// than a SQLite path.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
