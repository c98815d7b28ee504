package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// CompletionKind tags the three shapes a stored completion can take.
type CompletionKind int

const (
	// NotCompleted is an explicit false or null. Absence of the key means the same.
	NotCompleted CompletionKind = iota
	// Completed is a boolean true. On measurable habits it is the legacy
	// "completed, no numeric value" form and counts as full quality.
	Completed
	// Value is a numeric measurement.
	Value
)

// CompletionValue is one entry of Habit.Completions. On the wire it is a JSON
// boolean, number or null.
type CompletionValue struct {
	Kind   CompletionKind
	Amount float64
}

func Done() CompletionValue { return CompletionValue{Kind: Completed} }

func Measured(v float64) CompletionValue { return CompletionValue{Kind: Value, Amount: v} }

func NotDone() CompletionValue { return CompletionValue{Kind: NotCompleted} }

// IsDone reports whether the entry counts as a completion: a true or any number.
func (c CompletionValue) IsDone() bool {
	return c.Kind == Completed || c.Kind == Value
}

func (c CompletionValue) Equal(o CompletionValue) bool {
	if c.Kind != o.Kind {
		return false
	}
	return c.Kind != Value || c.Amount == o.Amount
}

func (c CompletionValue) String() string {
	switch c.Kind {
	case Completed:
		return "true"
	case Value:
		return strconv.FormatFloat(c.Amount, 'f', -1, 64)
	default:
		return "false"
	}
}

func (c CompletionValue) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case Completed:
		return []byte("true"), nil
	case Value:
		if math.IsNaN(c.Amount) || math.IsInf(c.Amount, 0) {
			return []byte("0"), nil
		}
		return json.Marshal(c.Amount)
	default:
		return []byte("false"), nil
	}
}

func (c *CompletionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*c = Done()
		return nil
	case "false", "null":
		*c = NotDone()
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("completion must be a boolean or number, got %s", data)
	}
	*c = Measured(n)
	return nil
}
