package planlog

import "github.com/kilianp07/opsplan/core/factory"

// Config selects and tunes the audit log backend.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file location of the log store.
	Path string `json:"path" yaml:"path"`
	// MaxSizeMB triggers rotation when the JSONL file exceeds this size.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

var storeRegistry = factory.NewRegistry[LogStore]()

func init() {
	_ = storeRegistry.Register("jsonl", func(conf map[string]any) (LogStore, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = storeRegistry.Register("sqlite", func(conf map[string]any) (LogStore, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
	_ = storeRegistry.Register("none", func(map[string]any) (LogStore, error) {
		return NopStore{}, nil
	})
}

// NewStore builds the store selected by cfg.Backend.
func NewStore(cfg Config) (LogStore, error) {
	return storeRegistry.Create(factory.ModuleConfig{Type: cfg.Backend, Conf: map[string]any{
		"path":         cfg.Path,
		"max_size_mb":  cfg.MaxSizeMB,
		"max_backups":  cfg.MaxBackups,
		"max_age_days": cfg.MaxAgeDays,
	}})
}
