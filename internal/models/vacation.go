package models

import "time"

// VacationPeriod freezes one or more habits over an inclusive range of days.
type VacationPeriod struct {
	ID        string   `json:"id"`
	StartDate string   `json:"startDate"` // YYYY-MM-DD
	EndDate   string   `json:"endDate"`   // YYYY-MM-DD, inclusive
	AllHabits bool     `json:"allHabits"`
	HabitIDs  []string `json:"habitIds,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// AppliesTo reports whether the period covers the given habit.
func (v VacationPeriod) AppliesTo(habitID string) bool {
	if v.AllHabits {
		return true
	}
	for _, id := range v.HabitIDs {
		if id == habitID {
			return true
		}
	}
	return false
}

type QueueOpType string

const (
	QueueCreate QueueOpType = "CREATE"
	QueueUpdate QueueOpType = "UPDATE"
	QueueDelete QueueOpType = "DELETE"
)

// QueueOp is a pending change recorded while the remote was unreachable.
// Payload is nil for deletes.
type QueueOp struct {
	ID        string      `json:"id"`
	Op        QueueOpType `json:"op"`
	EntityID  string      `json:"entityId"`
	Payload   *Habit      `json:"payload,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}
