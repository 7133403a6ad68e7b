package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rpggio/waypoint/internal/config"
	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/postgres"
	"github.com/rpggio/waypoint/internal/sqlite"
)

type apiKeyStore interface {
	AddKey(ctx context.Context, token, userID, description string) error
	ResolveActor(ctx context.Context, token string) (string, error)
}

// stores bundles the storage adapters of the configured driver.
type stores struct {
	projects project.Store
	members  project.MemberStore
	tasks    project.TaskReader
	activity activity.Repository
	keys     apiKeyStore
	ping     func(ctx context.Context) error
	close    func()
}

func (s *stores) Ping(ctx context.Context) error { return s.ping(ctx) }

func openStores(ctx context.Context, cfg config.DBConfig) (*stores, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL, int32(cfg.MaxConns))
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &stores{
			projects: postgres.NewProjectRepo(db),
			members:  postgres.NewMemberRepo(db),
			tasks:    postgres.NewTaskRepo(db),
			activity: postgres.NewActivityRepo(db),
			keys:     postgres.NewAPIKeyRepo(db),
			ping:     db.Ping,
			close:    db.Close,
		}, nil
	default:
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &stores{
			projects: sqlite.NewProjectRepository(db),
			members:  sqlite.NewMemberRepository(db),
			tasks:    sqlite.NewTaskRepository(db),
			activity: sqlite.NewActivityRepository(db),
			keys:     sqlite.NewAPIKeyRepository(db),
			ping:     db.Ping,
			close:    func() { _ = db.Close() },
		}, nil
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
