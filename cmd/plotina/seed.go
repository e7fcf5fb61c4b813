package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/plotina/internal/config"
	"github.com/mtlprog/plotina/internal/database"
	"github.com/mtlprog/plotina/internal/source"
)

func seedCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "store a series or settings file in Postgres for db:<name> locators",
		ArgsUsage: "<name> <file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: plotina seed <name> <file>")
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			name, path := c.Args().Get(0), c.Args().Get(1)

			body, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if err := validateDocument(body); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			pool, err := database.Open(c.Context, cfg.DatabaseURL, migrations())
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := source.NewPgRepository(pool)
			if err := repo.Save(c.Context, name, json.RawMessage(body)); err != nil {
				return err
			}

			names, err := repo.List(c.Context)
			if err != nil {
				return err
			}
			slog.Info("source stored", "name", name, "file", path, "stored", names)
			return nil
		},
	}
}

// validateDocument accepts a document that parses as either a settings or a
// series source.
func validateDocument(body []byte) error {
	if _, err := source.ParseSettings(body); err == nil {
		return nil
	}
	if _, err := source.ParseSeries(body); err != nil {
		return fmt.Errorf("neither a settings nor a series source: %w", err)
	}
	return nil
}
