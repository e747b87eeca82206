package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/buriosa/buriosa/internal/config"
	"github.com/buriosa/buriosa/internal/db"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/storage"
	"github.com/buriosa/buriosa/internal/store"
)

// runtime holds what commands need. The store is opened on first use so
// registry commands never touch the storage backend.
type runtime struct {
	baseDir string
	cfg     *config.Config
	logger  *slog.Logger

	st      *store.Store
	adapter *storage.Adapter
	writer  *storage.Writer
	backend storage.Backend
	conn    *sql.DB
	cancel  func()
}

func newRuntime(baseDir string, cfg *config.Config, logger *slog.Logger) *runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &runtime{baseDir: baseDir, cfg: cfg, logger: logger}
}

// Store loads the persisted state and subscribes the writer to the store.
func (rt *runtime) Store() (*store.Store, error) {
	if rt.st != nil {
		return rt.st, nil
	}

	backend, conn, err := openBackend(rt.baseDir, rt.cfg)
	if err != nil {
		return nil, err
	}
	rt.backend = backend
	rt.conn = conn
	rt.adapter = storage.NewAdapter(backend, rt.cfg.StorageKey, rt.logger)
	rt.st = store.New(rt.adapter.Load(context.Background(), model.InitialState()))
	rt.writer = storage.NewWriter(rt.adapter, time.Duration(rt.cfg.SaveDebounceMS)*time.Millisecond)
	rt.cancel = rt.st.Subscribe(rt.writer.OnChange)

	rt.logger.Debug("store opened", "backend", rt.cfg.StorageBackend, "key", rt.adapter.Key())
	return rt.st, nil
}

// Now returns the current time in the configured timezone.
func (rt *runtime) Now() (time.Time, error) {
	loc, err := rt.cfg.Location()
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}

// Close flushes pending writes and releases the backend.
func (rt *runtime) Close() {
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.writer != nil {
		rt.writer.Close()
	}
	if rt.backend != nil {
		if err := rt.backend.Close(); err != nil {
			rt.logger.Warn("close storage backend", "error", err)
		}
	}
	if rt.conn != nil {
		_ = rt.conn.Close()
	}
}

// openBackend builds the storage backend selected by cfg. The SQLite
// backend also returns the database handle, which the caller closes.
func openBackend(baseDir string, cfg *config.Config) (storage.Backend, *sql.DB, error) {
	switch cfg.StorageBackend {
	case "", config.BackendSQLite:
		conn, err := db.Init(baseDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(conn, cfg)
		return storage.NewSQLiteBackend(conn), conn, nil

	case config.BackendBolt:
		path := cfg.BoltPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		b, err := storage.NewBoltBackend(path)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil

	case config.BackendRedis:
		b, err := storage.NewRedisBackend(storage.RedisConfig{
			Addr:      cfg.RedisAddr,
			Username:  cfg.RedisUsername,
			Password:  cfg.RedisPassword,
			Database:  cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil

	case config.BackendMemory:
		return storage.NewMemoryBackend(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q (valid: sqlite, bolt, redis, memory)", cfg.StorageBackend)
}
