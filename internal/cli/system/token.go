package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

type TokenCmd struct {
	Set    TokenSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
	Delete TokenDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
}

type TokenSetCmd struct {
	Value    string `arg:"" help:"API token, or a PostgreSQL connection string with --postgres."`
	Postgres bool   `help:"Store the sync server's PostgreSQL connection string instead of the API token."`
}

func (c *TokenSetCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	if !c.Postgres {
		if err := keyring.SetAPIToken(c.Value); err != nil {
			return fmt.Errorf("failed to store API token: %w", err)
		}
		ctx.Printf("✓ API token stored in OS keyring\n")
		return nil
	}

	if err := postgres.ValidateConnString(c.Value); err != nil {
		if !errors.Is(err, storage.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		ctx.Printf("%s\n", cli.WarningStyle.Render("Warning: connection string contains a password."))
		ctx.Printf("It will be stored as-is in the encrypted OS keyring.\n")
	}
	if err := keyring.SetConnectionString(c.Value); err != nil {
		return fmt.Errorf("failed to store connection string: %w", err)
	}
	ctx.Printf("✓ Connection string stored in OS keyring\n")
	return nil
}

type TokenDeleteCmd struct {
	Postgres bool `help:"Delete the PostgreSQL connection string instead of the API token."`
}

func (c *TokenDeleteCmd) Run(ctx *cli.Context) error {
	del, what := keyring.DeleteAPIToken, "API token"
	if c.Postgres {
		del, what = keyring.DeleteConnectionString, "connection string"
	}
	if err := del(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", what)
		}
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	ctx.Printf("✓ %s removed from OS keyring\n", what)
	return nil
}
