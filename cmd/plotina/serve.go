package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/plotina/internal/api"
	"github.com/mtlprog/plotina/internal/config"
	"github.com/mtlprog/plotina/internal/export"
	"github.com/mtlprog/plotina/internal/worker"
)

func serveCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "load the indicator set and serve the dashboard API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.HTTPPort, Usage: "HTTP port"},
			&cli.BoolFlag{Name: "demo", Value: cfg.Demo, Usage: "report demo data to the renderer"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := context.WithCancel(c.Context)
			defer stop()

			sess, err := openSession(ctx, *cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			// A failed load keeps the server up so the renderer sees the error
			// and an operator can trigger a reload.
			if err := sess.dash.Start(ctx); err != nil {
				slog.Error("initial load failed", "error", err)
			}

			if cfg.SheetsEnabled() {
				writer, err := export.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.GoogleCredentials)
				if err != nil {
					return err
				}
				syncWorker := worker.NewSyncWorker(export.NewService(sess.dash, writer), cfg.SheetsSyncInterval)
				go syncWorker.Run(ctx)
			}

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, reload and export endpoints are unprotected")
			}

			srv := api.NewServer(c.String("port"), sess.dash, sess.bus, api.Options{
				AdminAPIKey: cfg.AdminAPIKey,
				CORSOrigins: cfg.CORSOrigins,
				Demo:        c.Bool("demo"),
			})

			go func() {
				log.Printf("HTTP server listening on :%s", c.String("port"))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("HTTP server error: %v", err)
					stop()
				}
			}()

			<-ctx.Done()
			log.Println("Shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}

			log.Println("Shutdown complete")
			return nil
		},
	}
}
