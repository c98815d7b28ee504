package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func (s *Store) AddVacation(v models.VacationPeriod) error {
	ids, err := json.Marshal(append([]string{}, v.HabitIDs...))
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO vacations (id, start_date, end_date, all_habits, habit_ids, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.StartDate, v.EndDate, v.AllHabits, string(ids), v.Note)
	if err != nil {
		return fmt.Errorf("failed to save vacation %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) GetAllVacations() ([]models.VacationPeriod, error) {
	rows, err := s.db.Query(`
		SELECT id, start_date, end_date, all_habits, habit_ids, note
		FROM vacations ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := []models.VacationPeriod{}
	for rows.Next() {
		var v models.VacationPeriod
		var ids string
		if err := rows.Scan(&v.ID, &v.StartDate, &v.EndDate, &v.AllHabits, &ids, &v.Note); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &v.HabitIDs); err != nil {
			return nil, fmt.Errorf("failed to decode habit ids for vacation %s: %w", v.ID, err)
		}
		if len(v.HabitIDs) == 0 {
			v.HabitIDs = nil
		}
		periods = append(periods, v)
	}
	return periods, rows.Err()
}

func (s *Store) DeleteVacation(id string) error {
	res, err := s.db.Exec("DELETE FROM vacations WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("vacation %q: %w", id, storage.ErrNotFound)
	}
	return nil
}
