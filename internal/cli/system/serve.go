package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/api"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

// ServeCmd runs the sync server that clients push to and fetch from.
type ServeCmd struct {
	Addr    string `help:"Listen address (defaults to server.addr from config)."`
	Backend string `help:"SQLite path, PostgreSQL connection string, or 'keyring' (defaults to server.backend from config)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	addr := c.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if addr == "" {
		addr = constants.DefaultServerAddr
	}
	backend := c.Backend
	if backend == "" {
		backend = cfg.Server.Backend
	}

	apiKey, err := serverAPIKey(cfg)
	if err != nil {
		return err
	}

	store, err := openBackend(backend)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize server storage: %w", err)
	}
	defer store.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting sync server", "addr", addr, "backend", store.GetConfigPath())
	ctx.Printf("Serving %s on %s (backend: %s)\n", constants.APIPrefix, addr, store.GetConfigPath())
	return api.Serve(sigCtx, addr, api.NewRouter(api.NewHandler(store, apiKey, constants.Version)))
}

// serverAPIKey reads the bearer token clients must present, from the
// environment first and the OS keyring second.
func serverAPIKey(cfg *config.Config) (string, error) {
	if cfg.Server.APIKey != "" {
		return cfg.Server.APIKey, nil
	}
	key, err := keyring.GetAPIToken()
	if err == nil && key != "" {
		return key, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Warn("Failed to read API key from keyring", "error", err)
	}
	return "", errors.New("no API key configured: set HABITUAL_SERVER_API_KEY or run 'habitual token set'")
}

// openBackend picks the server store. Connection strings given on the command
// line or in config must not carry a password; only one read from the keyring
// may.
func openBackend(backend string) (storage.Provider, error) {
	switch {
	case backend == "" || backend == "keyring":
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to read connection string from keyring: %w", err)
		}
		if err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, storage.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(connStr), nil

	case storage.IsPostgres(backend):
		if err := postgres.ValidateConnString(backend); err != nil {
			if errors.Is(err, storage.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store it with 'habitual token set --postgres' and use --backend=keyring", err)
			}
			return nil, err
		}
		return postgres.New(backend), nil

	default:
		return sqlite.NewStore(config.ExpandHome(backend)), nil
	}
}
