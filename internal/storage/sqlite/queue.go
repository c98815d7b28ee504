package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// queueTimeFormat is fixed width so created_at sorts lexically.
const queueTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) EnqueueOp(op models.QueueOp) error {
	payload, err := storage.EncodeOp(op)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO sync_queue (id, op, entity_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		op.ID, string(op.Op), op.EntityID, payload, op.CreatedAt.UTC().Format(queueTimeFormat))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s %s: %w", op.Op, op.EntityID, err)
	}
	return nil
}

// GetQueueOps returns pending operations oldest first. ULID ids sort by
// creation time, so ordering by id breaks ties within the same instant.
func (s *Store) GetQueueOps() ([]models.QueueOp, error) {
	rows, err := s.db.Query(`
		SELECT id, op, entity_id, payload, created_at
		FROM sync_queue ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ops := []models.QueueOp{}
	for rows.Next() {
		var op models.QueueOp
		var kind, createdAt string
		var payload sql.NullString
		if err := rows.Scan(&op.ID, &kind, &op.EntityID, &payload, &createdAt); err != nil {
			return nil, err
		}
		op.Op = models.QueueOpType(kind)
		op.CreatedAt, err = time.Parse(queueTimeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for op %s: %w", op.ID, err)
		}
		if payload.Valid {
			h, err := storage.DecodeHabit([]byte(payload.String))
			if err != nil {
				return nil, err
			}
			op.Payload = &h
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (s *Store) DeleteQueueOps(ids []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM sync_queue WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete op %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, storage.ErrNotFound)
	}
	return value, err
}

func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
