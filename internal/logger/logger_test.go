package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "抓取失败",
		Data:    logrus.Fields{"url": "https://example.com/feed", "attempt": 2},
	}

	out, err := (&CustomFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2026-10-19 08:30:00] [WARN] [] 抓取失败 attempt=2 url=https://example.com/feed\n", string(out))
}

func TestInitLogger_File(t *testing.T) {
	orig := Log
	t.Cleanup(func() { Log = orig })

	path := filepath.Join(t.TempDir(), "logs", "run.log")
	require.NoError(t, InitLogger("debug", path))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Log.Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] [logger_test.go:")
	assert.Contains(t, string(data), "hello")
}

func TestInitLogger_BadLevel(t *testing.T) {
	orig := Log
	t.Cleanup(func() { Log = orig })

	require.NoError(t, InitLogger("loud", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}

func TestFromContext(t *testing.T) {
	assert.Same(t, Log, FromContext(context.Background()).Logger)

	entry := Log.WithField("run_id", "abc")
	got := FromContext(WithEntry(context.Background(), entry))
	assert.Same(t, entry, got)
	assert.Equal(t, "abc", got.Data["run_id"])
}
