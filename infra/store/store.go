// Package store implements the schedule store and the reference lookups the
// planning service reads from, in memory or on SQLite, plus a seed loader for
// reference data.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/opsplan/core/factory"
	"github.com/kilianp07/opsplan/core/model"
	"github.com/kilianp07/opsplan/core/plan"
)

// ErrNotFound is returned when an update or delete names an unknown id.
var ErrNotFound = errors.New("schedule not found")

// Backend is a schedule store that also serves reference data.
type Backend interface {
	plan.Store
	plan.ReferenceSource
	// ReplaceReference swaps all reference tables for ref.
	ReplaceReference(ctx context.Context, ref model.Reference) error
	// Import inserts schedules keeping their ids. Records without id get one.
	Import(ctx context.Context, list []model.BaseSchedule) error
	Close() error
}

// Config selects the backend.
type Config struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the SQLite database file.
	Path string `json:"path"`
	// SeedPath optionally names a YAML or JSON seed file loaded at startup.
	SeedPath string `json:"seed_path"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "opsplan.db"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
}

var backends = factory.NewRegistry[Backend]()

func init() {
	_ = backends.Register("memory", func(map[string]any) (Backend, error) {
		return NewMemoryStore(), nil
	})
	_ = backends.Register("sqlite", func(conf map[string]any) (Backend, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// Open builds the configured backend and applies the seed file, if any.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := backends.Create(factory.ModuleConfig{Type: cfg.Backend, Conf: map[string]any{"path": cfg.Path}})
	if err != nil {
		return nil, err
	}
	if cfg.SeedPath == "" {
		return b, nil
	}
	seed, err := LoadSeed(cfg.SeedPath)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if err := seed.Apply(ctx, b); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}
