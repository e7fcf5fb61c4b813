package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/plotina/internal/config"
	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/database"
	"github.com/mtlprog/plotina/internal/events"
	"github.com/mtlprog/plotina/internal/source"
	"github.com/mtlprog/plotina/internal/store"
)

// session is one wired dashboard with its optional database pool.
type session struct {
	dash *dashboard.Service
	bus  *events.Bus
	pool *pgxpool.Pool
}

func (s *session) Close() {
	s.dash.Stop()
	if s.pool != nil {
		s.pool.Close()
	}
}

// openSession wires sources, store, loader and dashboard. The database is only
// opened when DATABASE_URL is set.
func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	s := &session{bus: events.NewBus()}

	var docs source.DocumentReader
	if cfg.DatabaseURL != "" {
		pool, err := database.Open(ctx, cfg.DatabaseURL, migrations())
		if err != nil {
			return nil, err
		}
		s.pool = pool
		docs = source.NewPgRepository(pool)
	}

	series, err := source.Open(cfg.SeriesSource, docs, cfg.SourceTimeout)
	if err != nil {
		s.closePool()
		return nil, fmt.Errorf("series source: %w", err)
	}
	settings, err := source.Open(cfg.SettingsSource, docs, cfg.SourceTimeout)
	if err != nil {
		s.closePool()
		return nil, fmt.Errorf("settings source: %w", err)
	}

	s.dash = dashboard.NewService(store.NewLoader(series, settings), store.New(s.bus), s.bus)
	return s, nil
}

func (s *session) closePool() {
	if s.pool != nil {
		s.pool.Close()
	}
}
