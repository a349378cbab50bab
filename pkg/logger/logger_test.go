package logger

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(level)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Init("info")
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"Error":   LevelError,
		"fatal":   LevelFatal,
		"verbose": LevelInfo,
		"":        LevelInfo,
	} {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "info", Level(42).String())
}

func TestInitSetsMinimumLevel(t *testing.T) {
	buf := capture(t, "warn")
	require.Equal(t, "warn", LevelString())

	Debugf("seeded %d rows", 7)
	Infof("published feed")
	Warnf("cron spec %q ignored", "@weekly")
	Errorf("commit failed")

	out := buf.String()
	assert.NotContains(t, out, "seeded")
	assert.NotContains(t, out, "published feed")
	assert.Contains(t, out, `[WARN] cron spec "@weekly" ignored`)
	assert.Contains(t, out, "[ERROR] commit failed")
}

func TestKeyValueVariants(t *testing.T) {
	buf := capture(t, "info")

	Infow("schedule: generated", "collection", "schedules", "events", 4)
	assert.Contains(t, buf.String(), "[INFO] schedule: generated collection=schedules events=4")

	buf.Reset()
	Errorw("store: commit failed", errors.New("write conflict"), "collection", "committees", 3, "skipped", "dangling")
	out := buf.String()
	assert.Contains(t, out, "err=write conflict collection=committees")
	assert.NotContains(t, out, "skipped")
	assert.NotContains(t, out, "dangling")

	buf.Reset()
	Init("error")
	Warnw("live: slow subscriber", "collection", "schedules")
	assert.Empty(t, buf.String())
}
