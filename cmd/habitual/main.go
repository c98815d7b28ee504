package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/cli/vacations"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" env:"HABITUAL_CONFIG_PATH"`
	DB      string `help:"Database path or PostgreSQL connection string; overrides database.path. PostgreSQL credentials must NOT be embedded, use .pgpass or the environment instead." type:"string"`
	NoSync  bool   `help:"Queue changes without contacting the remote."`
	Debug   bool   `help:"Log to stderr at debug level."`

	Init     system.InitCmd        `cmd:"" help:"Initialize habitual storage."`
	Habit    habits.HabitCmd       `cmd:"" help:"Manage habits and completions."`
	Stats    habits.StatsCmd       `cmd:"" help:"Show monthly goal progress for every habit."`
	Vacation vacations.VacationCmd `cmd:"" help:"Manage vacation periods."`
	Sync     system.SyncCmd        `cmd:"" help:"Synchronize habits with the remote."`
	Queue    system.QueueCmd       `cmd:"" help:"Inspect or drain the offline queue."`
	Serve    system.ServeCmd       `cmd:"" help:"Run the sync server."`
	Token    system.TokenCmd       `cmd:"" help:"Manage credentials in the OS keyring."`
	Doctor   system.DoctorCmd      `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd    `cmd:"" help:"Validate stored habits and vacations."`
	Backup   backups.BackupCmd     `cmd:"" help:"Manage database backups."`
}

// noLoad lists commands that open storage themselves or never touch it.
var noLoad = map[string]bool{
	"init":   true,
	"serve":  true,
	"token":  true,
	"doctor": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracking with strength scores, monthly goals and offline sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(fmt.Errorf("failed to load config: %w", err))
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}

	command := ""
	if fields := strings.Fields(ctx.Command()); len(fields) > 0 {
		command = fields[0]
	}
	if err := logger.Init(logger.Config{
		Debug:     cfg.Log.Debug,
		Level:     cfg.Log.Level,
		ConfigDir: cfg.Dir(),
		Stderr:    command == "serve",
	}); err != nil {
		apperrors.Fatal(fmt.Errorf("failed to initialize logger: %w", err))
	}

	store, err := openStore(cfg)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	configPath := CLI.Config
	if configPath == "" {
		configPath = filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigFile)
	}
	appCtx := &cli.Context{
		Store:      store,
		Config:     cfg,
		ConfigPath: configPath,
		NoSync:     CLI.NoSync,
	}

	if !noLoad[command] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

func openStore(cfg *config.Config) (storage.Provider, error) {
	if CLI.DB == "" {
		return sqlite.NewStore(cfg.Database.Path), nil
	}
	if !storage.IsPostgres(CLI.DB) {
		return sqlite.NewStore(config.ExpandHome(CLI.DB)), nil
	}
	if err := postgres.ValidateConnString(CLI.DB); err != nil {
		if errors.Is(err, storage.ErrEmbeddedCredentials) {
			return nil, fmt.Errorf("%w; use .pgpass or PGPASSWORD instead", err)
		}
		return nil, err
	}
	return postgres.New(CLI.DB), nil
}
