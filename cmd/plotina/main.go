package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/plotina/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	app := &cli.App{
		Name:  "plotina",
		Usage: "weighted indicator dashboard backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "series", Usage: "series source (file path, http(s) URL or db:<name>)", Value: cfg.SeriesSource},
			&cli.StringFlag{Name: "settings", Usage: "settings source (file path, http(s) URL or db:<name>)", Value: cfg.SettingsSource},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: cfg.LogLevel},
		},
		Before: func(c *cli.Context) error {
			config.SetupLogger(c.String("log-level"))
			cfg.SeriesSource = c.String("series")
			cfg.SettingsSource = c.String("settings")
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(&cfg),
			showCommand(&cfg),
			exportCommand(&cfg),
			buildSeriesCommand(&cfg),
			seedCommand(&cfg),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("plotina: %v", err)
	}
}

func migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		log.Fatalf("Failed to create migrations sub-fs: %v", err)
	}
	return sub
}
