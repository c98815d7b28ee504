package system

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/remote"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/validation"
	"github.com/julianstephens/habitual/migrations"
)

// skipError marks a check that does not apply to the current setup.
type skipError string

func (e skipError) Error() string { return string(e) }

type DoctorCmd struct{}

type check struct {
	name    string
	warning bool // failures are reported but do not fail the run
	needsDB bool
	run     func(*cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	checks := []check{
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Data validation", needsDB: true, run: checkValidation},
		{name: "Offline queue", warning: true, needsDB: true, run: checkQueue},
		{name: "Backups present", warning: true, run: checkBackupsPresent},
		{name: "OS keyring", warning: true, run: checkKeyring},
		{name: "Remote reachable", warning: true, run: checkRemote},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	ctx.Printf("Running diagnostics...\n\n")

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		var skip skipError
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &skip):
			ctx.Printf("⊘ %s: SKIPPED (%s)\n", c.name, skip)
		case c.warning:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	ctx.Printf("\n")
	if hasError {
		ctx.Printf("Diagnostics completed with errors.\n")
		return errors.New("one or more health checks failed")
	}
	ctx.Printf("All diagnostics passed!\n")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return errors.New("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	s, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return skipError("not a SQLite database")
	}
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(s.GetDB(), subFS)
	current, err := runner.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}
	switch {
	case current > latest:
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	case current < latest:
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits(true)
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	periods, err := ctx.Vacations()
	if err != nil {
		return err
	}
	res := validation.Habits(habits, periods, ctx.Today())
	if res.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found, run 'habitual validate' for details", len(res.Conflicts))
	}
	return nil
}

func checkQueue(ctx *cli.Context) error {
	ops, err := ctx.Store.GetQueueOps()
	if err != nil {
		return fmt.Errorf("failed to read offline queue: %w", err)
	}
	if len(ops) > 0 {
		return fmt.Errorf("%d change(s) not yet synced, run 'habitual sync'", len(ops))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return skipError("not a SQLite database")
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'habitual backup create'")
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkRemote(ctx *cli.Context) error {
	if ctx.Config == nil || ctx.Config.Remote.URL == "" {
		return skipError("no remote configured")
	}
	token := ctx.Config.Remote.APIToken
	if token == "" {
		t, err := keyring.GetAPIToken()
		if err != nil {
			return fmt.Errorf("no API token: %w", err)
		}
		token = t
	}
	client, err := remote.NewClient(ctx.Config.Remote.URL, token, time.Duration(ctx.Config.Remote.Timeout))
	if err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(context.Background(), time.Duration(ctx.Config.Remote.Timeout))
	defer cancel()
	return client.Ping(pctx)
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
