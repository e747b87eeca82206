package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

// Adapter reads and writes the state envelope under one fixed key.
// Load and Save fail soft: storage trouble is logged, never returned.
type Adapter struct {
	backend Backend
	key     string
	logger  *slog.Logger
	clock   func() time.Time
}

// NewAdapter creates an adapter over backend. A nil logger uses slog.Default().
func NewAdapter(backend Backend, key string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		backend: backend,
		key:     key,
		logger:  logger.With("component", "storage", "key", key),
		clock:   time.Now,
	}
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Load returns the persisted state, or def when nothing usable is stored.
func (a *Adapter) Load(ctx context.Context, def model.State) model.State {
	data, err := a.backend.Get(ctx, a.key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		a.logger.Warn("load failed, using default state", "error", err)
		return def
	}

	s, version, err := DecodeEnvelope(data)
	if err != nil {
		var newer *ErrNewerSchema
		if errors.As(err, &newer) {
			a.logger.Warn("stored state is from a newer version, using default state", "schema_version", newer.Version)
			return def
		}
		a.logger.Warn("stored state is unreadable, using default state", "error", err)
		return def
	}
	if version < SchemaVersion {
		a.logger.Info("migrated stored state", "from_version", version, "to_version", SchemaVersion)
	}
	return s
}

// Save writes s. Failures are logged and discarded.
func (a *Adapter) Save(ctx context.Context, s model.State) {
	data, err := EncodeEnvelope(s, a.clock())
	if err != nil {
		a.logger.Error("encode failed, state not saved", "error", err)
		return
	}
	if err := a.backend.Put(ctx, a.key, data); err != nil {
		a.logger.Error("save failed", "error", err)
	}
}

// Clear removes the stored state. Clearing an empty store succeeds.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.backend.Delete(ctx, a.key)
}

// Inspect returns the raw envelope as stored, without migrating it.
// Returns ErrNotFound if nothing is stored.
func (a *Adapter) Inspect(ctx context.Context) ([]byte, error) {
	return a.backend.Get(ctx, a.key)
}
