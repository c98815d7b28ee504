package storage

import "github.com/julianstephens/habitual/internal/models"

// Provider is implemented by the local SQLite replica and by the PostgreSQL
// backend of the sync server.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(name string) (models.Habit, error)
	GetAllHabits(includeArchived bool) ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	DeleteHabit(id string) error
	// ReplaceHabits atomically swaps the whole habit set, as a sync does.
	ReplaceHabits([]models.Habit) error

	// Vacations
	AddVacation(models.VacationPeriod) error
	GetAllVacations() ([]models.VacationPeriod, error)
	DeleteVacation(id string) error

	// Offline queue, oldest first
	EnqueueOp(models.QueueOp) error
	GetQueueOps() ([]models.QueueOp, error)
	DeleteQueueOps(ids []string) error

	// Key/value metadata such as the last sync time
	GetMeta(key string) (string, error)
	SetMeta(key, value string) error

	// Utils
	GetConfigPath() string
}
