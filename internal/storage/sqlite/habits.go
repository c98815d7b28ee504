package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

const upsertHabit = `
	INSERT INTO habits (id, name, is_archived, created_at, updated_at, data)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		is_archived = excluded.is_archived,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		data = excluded.data`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) AddHabit(habit models.Habit) error {
	if _, err := s.GetHabit(habit.ID); err == nil {
		return fmt.Errorf("habit %s already exists", habit.ID)
	}
	return s.UpdateHabit(habit)
}

func (s *Store) GetHabit(id string) (models.Habit, error) {
	return s.getHabitWhere("id = ?", id)
}

func (s *Store) GetHabitByName(name string) (models.Habit, error) {
	return s.getHabitWhere("name = ? COLLATE NOCASE", name)
}

func (s *Store) getHabitWhere(cond string, arg any) (models.Habit, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM habits WHERE "+cond+" ORDER BY created_at LIMIT 1", arg).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", arg, storage.ErrNotFound)
	}
	if err != nil {
		return models.Habit{}, err
	}
	return storage.DecodeHabit(data)
}

func (s *Store) GetAllHabits(includeArchived bool) ([]models.Habit, error) {
	query := "SELECT data FROM habits"
	if !includeArchived {
		query += " WHERE is_archived = 0"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		h, err := storage.DecodeHabit(data)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) UpdateHabit(habit models.Habit) error {
	return writeHabit(s.db, habit)
}

func writeHabit(db execer, habit models.Habit) error {
	if err := storage.ValidateHabit(habit); err != nil {
		return err
	}
	data, err := storage.EncodeHabit(habit)
	if err != nil {
		return err
	}
	_, err = db.Exec(upsertHabit, habit.ID, habit.Name, habit.IsArchived, habit.CreatedAt, habit.UpdatedAt, data)
	if err != nil {
		return fmt.Errorf("failed to save habit %s: %w", habit.ID, err)
	}
	return nil
}

func (s *Store) DeleteHabit(id string) error {
	res, err := s.db.Exec("DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("habit %q: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ReplaceHabits(habits []models.Habit) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec("DELETE FROM habits"); err != nil {
		return fmt.Errorf("failed to clear habits: %w", err)
	}
	for _, h := range habits {
		if err := writeHabit(tx, h); err != nil {
			return err
		}
	}
	return tx.Commit()
}
