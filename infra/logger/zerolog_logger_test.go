package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", map[string]any{"k": "v"})
	l.Warnf("warn")
	l.Warnw("warn", nil)
	l.Errorf("error")
}

func TestWarnwWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "plan")
	l.Warnw("schedule mutation rejected", map[string]any{"op": "add", "reason": "booking_conflict"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "plan", line["component"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "booking_conflict", line["reason"])
	assert.Equal(t, "schedule mutation rejected", line["message"])
}
