package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/opsplan/core/model"
)

// Seed is the content of a seed file: reference tables plus optional
// schedules.
type Seed struct {
	model.Reference `yaml:",inline"`
	Schedules       []model.BaseSchedule `json:"schedules" yaml:"schedules"`
}

// LoadSeed reads a YAML (.yaml, .yml) or JSON (.json) seed file.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data, filepath.Ext(path))
}

// ParseSeed decodes seed data in the format named by ext.
func ParseSeed(data []byte, ext string) (Seed, error) {
	var s Seed
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Seed{}, fmt.Errorf("decode yaml seed: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return Seed{}, fmt.Errorf("decode json seed: %w", err)
		}
	default:
		return Seed{}, fmt.Errorf("unsupported seed format: %s", ext)
	}
	return s, nil
}

// Apply replaces the reference tables of b and imports the schedules.
func (s Seed) Apply(ctx context.Context, b Backend) error {
	if err := b.ReplaceReference(ctx, s.Reference); err != nil {
		return fmt.Errorf("apply reference: %w", err)
	}
	if len(s.Schedules) == 0 {
		return nil
	}
	if err := b.Import(ctx, s.Schedules); err != nil {
		return fmt.Errorf("import schedules: %w", err)
	}
	return nil
}
