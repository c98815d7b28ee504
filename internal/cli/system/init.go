package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
)

type InitCmd struct {
	Force bool `help:"Delete the existing local database before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitual storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.ConfigPath == "" || ctx.Config == nil {
		return nil
	}
	path := config.ExpandHome(ctx.ConfigPath)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(ctx.Config, path); err != nil {
			return err
		}
		ctx.Printf("Wrote default config to: %s\n", path)
	}
	return nil
}
