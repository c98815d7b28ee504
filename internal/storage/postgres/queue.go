package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func (s *Store) EnqueueOp(op models.QueueOp) error {
	payload, err := storage.EncodeOp(op)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO sync_queue (id, op, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		op.ID, string(op.Op), op.EntityID, payload, op.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to enqueue %s %s: %w", op.Op, op.EntityID, err)
	}
	return nil
}

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
		var kind string
		var payload []byte
		if err := rows.Scan(&op.ID, &kind, &op.EntityID, &payload, &op.CreatedAt); err != nil {
			return nil, err
		}
		op.Op = models.QueueOpType(kind)
		if payload != nil {
			h, err := storage.DecodeHabit(payload)
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
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec("DELETE FROM sync_queue WHERE id = ANY($1)", pq.Array(ids))
	return err
}

func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, storage.ErrNotFound)
	}
	return value, err
}

func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}
