package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/calendar"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/remote"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/strength"
	"github.com/julianstephens/habitual/internal/syncer"
)

type Context struct {
	Store  storage.Provider
	Config *config.Config
	Clock  strength.Clock
	Out    io.Writer

	// ConfigPath is where the config file is read from and written to.
	ConfigPath string

	// Transport overrides the HTTP client built from the config.
	Transport syncer.Transport

	// NoSync keeps changes in the offline queue instead of syncing after
	// each command.
	NoSync bool

	orch *syncer.Orchestrator
}

func (c *Context) Now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

func (c *Context) Today() calendar.Day {
	return calendar.FromTime(c.Now())
}

func (c *Context) Engine() *strength.Engine {
	return strength.NewEngine(c.Clock)
}

// Printf writes command output.
func (c *Context) Printf(format string, args ...any) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

// Orchestrator returns the sync orchestrator, built on first use. Without a
// remote URL or API token it has no transport and every sync is offline.
func (c *Context) Orchestrator() *syncer.Orchestrator {
	if c.orch != nil {
		return c.orch
	}
	transport := c.Transport
	if transport == nil {
		transport = c.newTransport()
	}
	opts := []syncer.Option{}
	if c.Clock != nil {
		opts = append(opts, syncer.WithClock(c.Clock))
	}
	if s, ok := c.Store.(*sqlite.Store); ok {
		opts = append(opts, syncer.WithBeforeReplace(backup.NewManager(s.GetConfigPath()).PreSync))
	}
	c.orch = syncer.New(c.Store, c.Store, transport, opts...)
	return c.orch
}

// newTransport returns nil rather than a typed nil so the orchestrator sees
// an absent transport.
func (c *Context) newTransport() syncer.Transport {
	if c.Config == nil || c.Config.Remote.URL == "" {
		return nil
	}
	token := c.Config.Remote.APIToken
	if token == "" {
		t, err := keyring.GetAPIToken()
		if err != nil {
			if !errors.Is(err, keyring.ErrNotFound) {
				logger.Warn("Failed to read API token from keyring", "error", err)
			}
			return nil
		}
		token = t
	}
	client, err := remote.NewClient(c.Config.Remote.URL, token, time.Duration(c.Config.Remote.Timeout))
	if err != nil {
		logger.Warn("Sync disabled", "error", err)
		return nil
	}
	return client
}

// ResolveHabit finds a habit by id, then by case-insensitive name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	h, err := c.Store.GetHabit(ref)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}
	h, err = c.Store.GetHabitByName(ref)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	}
	return h, err
}

// Vacations loads every vacation period.
func (c *Context) Vacations() ([]models.VacationPeriod, error) {
	periods, err := c.Store.GetAllVacations()
	if err != nil {
		return nil, fmt.Errorf("failed to load vacations: %w", err)
	}
	return periods, nil
}

// Commit persists a local change, records it in the offline queue and
// attempts a sync.
func (c *Context) Commit(h models.Habit, op models.QueueOpType) error {
	var err error
	switch op {
	case models.QueueCreate:
		err = c.Store.AddHabit(h)
	case models.QueueUpdate:
		err = c.Store.UpdateHabit(h)
	case models.QueueDelete:
		err = c.Store.DeleteHabit(h.ID)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		return err
	}

	orch := c.Orchestrator()
	if err := orch.Enqueue(op, h.ID, &h); err != nil {
		return fmt.Errorf("failed to queue change: %w", err)
	}
	c.AutoSync()
	return nil
}

// AutoSync runs a best-effort sync unless disabled. Failures are logged and
// the change stays queued.
func (c *Context) AutoSync() {
	if c.NoSync {
		return
	}
	timeout := 30 * time.Second
	if c.Config != nil && c.Config.Remote.Timeout > 0 {
		timeout = time.Duration(c.Config.Remote.Timeout)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := c.Orchestrator().Sync(ctx)
	if err != nil {
		logger.Warn("Background sync failed", "error", err)
		return
	}
	logger.Debug("Background sync", "outcome", res.Outcome, "replayed", res.Replayed)
}

// ParseDay accepts YYYY-MM-DD, "today", "yesterday" or "" (today).
func ParseDay(s string, today calendar.Day) (calendar.Day, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	d, err := calendar.ParseDay(s)
	if err != nil {
		return calendar.Day{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD, today or yesterday)", s)
	}
	return d, nil
}

// ParseWeekdays parses a comma-separated list of weekday names or indexes
// (0=Sunday) into sorted, de-duplicated indexes.
func ParseWeekdays(s string) ([]int, error) {
	dayMap := map[string]int{
		"sun": 0, "sunday": 0,
		"mon": 1, "monday": 1,
		"tue": 2, "tuesday": 2,
		"wed": 3, "wednesday": 3,
		"thu": 4, "thursday": 4,
		"fri": 5, "friday": 5,
		"sat": 6, "saturday": 6,
	}

	var seen [7]bool
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		wd, ok := dayMap[part]
		if !ok {
			num, err := strconv.Atoi(part)
			if err != nil || num < 0 || num > 6 {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
			wd = num
		}
		seen[wd] = true
	}

	var days []int
	for i, ok := range seen {
		if ok {
			days = append(days, i)
		}
	}
	if len(days) == 0 {
		return nil, errors.New("no weekdays given")
	}
	return days, nil
}
