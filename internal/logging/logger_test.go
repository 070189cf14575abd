package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerFromCore_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore(core).Named("inference").With(String("request_id", "abc"))

	l.Info("classified",
		Int("n", 3),
		Float64("sum", 1.0),
		Duration("took", 5*time.Millisecond),
		Err(errors.New("none")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "classified", entry.Message)
	assert.Equal(t, "inference", entry.LoggerName)

	fields := entry.ContextMap()
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, int64(3), fields["n"])
	assert.Equal(t, "none", fields["error"])
}

func TestNewLogger_SetLevel(t *testing.T) {
	l, err := NewLogger(Config{Level: "info", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)

	zl := l.(*zapLogger)
	assert.False(t, zl.z.Core().Enabled(zapcore.DebugLevel))

	l.Named("child").SetLevel("debug")
	assert.True(t, zl.z.Core().Enabled(zapcore.DebugLevel))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored")
	assert.NoError(t, l.With(String("k", "v")).Named("x").Sync())
}
