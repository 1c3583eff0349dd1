package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/opsplan/core/plan"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `store:
  backend: "sqlite"
  path: "plan.db"
  seed_path: "seed.yaml"
plan:
  view_mode: "month"
  max_recurrence_days: 180
  max_window_days: 62
http:
  address: ":9000"
  metrics_address: ":9100"
  audit_token: "t0k"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "depot/plan"
  qos: 1
metrics:
  sinks:
    - type: "nop"
logging:
  level: "debug"
  backend: "sqlite"
  path: "audit.db"
sentry:
  dsn: ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "plan.db"},
		{"store.seed_path", cfg.Store.SeedPath, "seed.yaml"},
		{"plan.view_mode", cfg.Plan.ViewMode, plan.ViewMonth},
		{"plan.max_recurrence_days", cfg.Plan.MaxRecurrenceDays, 180},
		{"plan.max_window_days", cfg.Plan.MaxWindowDays, 62},
		{"plan.refresh_debounce_ms", cfg.Plan.RefreshDebounceMS, 250},
		{"http.address", cfg.HTTP.Address, ":9000"},
		{"http.metrics_address", cfg.HTTP.MetricsAddress, ":9100"},
		{"http.audit_token", cfg.HTTP.AuditToken, "t0k"},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "depot/plan"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.audit", cfg.Logging.Audit().Path, "audit.db"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json", `{}`))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Store.Backend != "memory" || cfg.Plan.ViewMode != plan.ViewWeek || cfg.HTTP.Address != ":8080" {
		t.Fatalf("defaults not applied: %#v", cfg)
	}
	if cfg.Logging.Backend != "jsonl" || cfg.Logging.Path == "" {
		t.Fatalf("logging defaults not applied: %#v", cfg.Logging)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_STORE__PATH", "override.db")
	cfg, err := Load(writeConfig(t, "config.yaml", "store:\n  backend: sqlite\n  path: plan.db\n"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Store.Path != "override.db" {
		t.Fatalf("env override not applied: %s", cfg.Store.Path)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"view mode": "plan:\n  view_mode: year\n",
		"backend":   "store:\n  backend: redis\n",
		"mqtt":      "mqtt:\n  enabled: true\n",
		"level":     "logging:\n  level: loud\n",
		"sentry":    "sentry:\n  traces_sample_rate: 2\n",
	} {
		if _, err := Load(writeConfig(t, "config.yaml", data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Errorf("expected unsupported format error")
	}
}
