package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// maxBodyBytes bounds a pushed habit set.
const maxBodyBytes = 16 << 20

// HabitStore is the slice of storage the server needs.
type HabitStore interface {
	GetAllHabits(includeArchived bool) ([]models.Habit, error)
	ReplaceHabits([]models.Habit) error
}

// HabitsPayload is the body of GET and PUT /habits.
type HabitsPayload struct {
	Habits []models.Habit `json:"habits"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handler implements the API handlers
type Handler struct {
	store   HabitStore
	apiKey  string
	version string
}

func NewHandler(s HabitStore, apiKey, version string) *Handler {
	return &Handler{
		store:   s,
		apiKey:  apiKey,
		version: version,
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: h.version})
}

// ListHabits handles GET /api/v1/habits, archived habits included.
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := h.store.GetAllHabits(true)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HabitsPayload{Habits: habits})
}

// ReplaceHabits handles PUT /api/v1/habits. The body replaces the whole set;
// clients merge before they push.
func (h *Handler) ReplaceHabits(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req HabitsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteProblem(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if err := validateHabits(req.Habits); err != nil {
		WriteProblem(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.store.ReplaceHabits(req.Habits); err != nil {
		MapStoreError(w, r, err)
		return
	}
	logger.Info("habits replaced", "count", len(req.Habits))
	w.WriteHeader(http.StatusNoContent)
}

func validateHabits(habits []models.Habit) error {
	seen := make(map[string]bool, len(habits))
	for i, h := range habits {
		if err := storage.ValidateHabit(h); err != nil {
			return fmt.Errorf("habits[%d]: %w", i, err)
		}
		if seen[h.ID] {
			return fmt.Errorf("habits[%d]: duplicate id %s", i, h.ID)
		}
		seen[h.ID] = true
		switch h.Type {
		case models.HabitBinary, models.HabitMeasurable, "":
		default:
			return fmt.Errorf("habit %s: unknown type %q", h.ID, h.Type)
		}
		if h.Frequency != nil {
			if err := h.Frequency.Validate(); err != nil {
				return fmt.Errorf("habit %s: %w", h.ID, err)
			}
		}
		for key := range h.Completions {
			if _, err := calendar.ParseDay(key); err != nil {
				return fmt.Errorf("habit %s: invalid completion day %q", h.ID, key)
			}
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
