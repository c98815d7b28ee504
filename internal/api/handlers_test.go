package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

const testKey = "secret-token"

type mockStore struct {
	habits      []models.Habit
	listErr     error
	replaceErr  error
	replaceCall int
}

func (m *mockStore) GetAllHabits(includeArchived bool) ([]models.Habit, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.habits, nil
}

func (m *mockStore) ReplaceHabits(habits []models.Habit) error {
	m.replaceCall++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.habits = habits
	return nil
}

func newTestRouter(s *mockStore) http.Handler {
	return NewRouter(NewHandler(s, testKey, "test"))
}

func doRequest(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("Content-Type = %q, want application/problem+json", ct)
	}
	var p Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	return p
}

func TestHealthIsPublic(t *testing.T) {
	rec := doRequest(newTestRouter(&mockStore{}), http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if resp.Status != "healthy" || resp.Version != "test" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestHabitsRequireToken(t *testing.T) {
	router := newTestRouter(&mockStore{})
	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong", "nope"},
		{"prefix only", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, "/api/v1/habits", tt.token, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			p := decodeProblem(t, rec)
			if p.Status != http.StatusUnauthorized || p.Instance != "/api/v1/habits" {
				t.Errorf("unexpected problem: %+v", p)
			}
		})
	}
}

func TestEmptyAPIKeyRejectsEverything(t *testing.T) {
	router := NewRouter(NewHandler(&mockStore{}, "", "test"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/habits", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListHabits(t *testing.T) {
	h := models.Habit{ID: "h1", Name: "Read", Type: models.HabitBinary, IsArchived: true,
		Completions: map[string]models.CompletionValue{"2025-01-01": models.Done()}}
	rec := doRequest(newTestRouter(&mockStore{habits: []models.Habit{h}}), http.MethodGet, "/api/v1/habits", testKey, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HabitsPayload
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode habits: %v", err)
	}
	if len(resp.Habits) != 1 || resp.Habits[0].ID != "h1" || !resp.Habits[0].IsArchived {
		t.Fatalf("unexpected habits: %+v", resp.Habits)
	}
	if v := resp.Habits[0].Completions["2025-01-01"]; !v.IsDone() {
		t.Errorf("completion lost in transit: %v", v)
	}
}

func TestListHabitsStoreError(t *testing.T) {
	rec := doRequest(newTestRouter(&mockStore{listErr: errors.New("disk on fire")}), http.MethodGet, "/api/v1/habits", testKey, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if p := decodeProblem(t, rec); strings.Contains(p.Detail, "disk") {
		t.Errorf("internal error leaked to client: %q", p.Detail)
	}
}

func TestReplaceHabits(t *testing.T) {
	s := &mockStore{}
	body := `{"habits":[{"id":"h1","name":"Read","type":"binary","createdAt":"2025-01-01T00:00:00Z","completions":{"2025-01-02":true}}]}`
	rec := doRequest(newTestRouter(s), http.MethodPut, "/api/v1/habits", testKey, body)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
	if s.replaceCall != 1 || len(s.habits) != 1 || s.habits[0].Name != "Read" {
		t.Fatalf("store not replaced: calls=%d habits=%+v", s.replaceCall, s.habits)
	}
}

func TestReplaceHabitsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"habits":`, http.StatusBadRequest},
		{"missing id", `{"habits":[{"name":"Read"}]}`, http.StatusUnprocessableEntity},
		{"missing name", `{"habits":[{"id":"h1"}]}`, http.StatusUnprocessableEntity},
		{"duplicate id", `{"habits":[{"id":"h1","name":"a"},{"id":"h1","name":"b"}]}`, http.StatusUnprocessableEntity},
		{"unknown type", `{"habits":[{"id":"h1","name":"a","type":"weird"}]}`, http.StatusUnprocessableEntity},
		{"bad frequency", `{"habits":[{"id":"h1","name":"a","frequency":{"type":"every_n_days","period":0}}]}`, http.StatusUnprocessableEntity},
		{"bad completion day", `{"habits":[{"id":"h1","name":"a","completions":{"yesterday":true}}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockStore{}
			rec := doRequest(newTestRouter(s), http.MethodPut, "/api/v1/habits", testKey, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			decodeProblem(t, rec)
			if s.replaceCall != 0 {
				t.Errorf("store replaced on invalid payload")
			}
		})
	}
}

func TestReplaceHabitsStoreNotFound(t *testing.T) {
	s := &mockStore{replaceErr: storage.ErrNotFound}
	rec := doRequest(newTestRouter(s), http.MethodPut, "/api/v1/habits", testKey, `{"habits":[]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := doRequest(newTestRouter(&mockStore{}), http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	decodeProblem(t, rec)
}

func TestRequestIDHeaderPropagates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	newTestRouter(&mockStore{}).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"bearer abc", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := extractBearerToken(req); got != tt.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
