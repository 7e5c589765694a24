package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/fittracker/internal/config"
)

// OpenKV connects the backend selected by cfg.Storage.Backend. The
// postgres backend applies the migrations in migrationsDir first.
func OpenKV(ctx context.Context, cfg *config.Config, migrationsDir string, log *slog.Logger) (KV, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("memory backend: data is lost on exit")
		return NewMemoryKV(), nil

	case config.BackendSQLite:
		kv, err := OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite opened", "path", cfg.Storage.SQLitePath)
		return kv, nil

	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn, migrationsDir); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		db, err := New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("database connected", "host", cfg.Database.Host, "name", cfg.Database.Name)
		return db, nil

	case config.BackendRedis:
		kv, err := OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		log.Info("redis connected", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return kv, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
