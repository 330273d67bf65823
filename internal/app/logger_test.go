package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerHonorsLevel(t *testing.T) {
	ctx := context.Background()

	warn := NewLogger(&Config{LogLevel: "warn"})
	require.False(t, warn.Enabled(ctx, slog.LevelInfo))
	require.True(t, warn.Enabled(ctx, slog.LevelWarn))

	debug := NewLogger(&Config{LogFormat: "json", LogLevel: "DEBUG"})
	require.True(t, debug.Enabled(ctx, slog.LevelDebug))
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []*Config{nil, {}, {LogLevel: "verbose"}} {
		logger := NewLogger(cfg)
		require.True(t, logger.Enabled(ctx, slog.LevelInfo))
		require.False(t, logger.Enabled(ctx, slog.LevelDebug))
	}
}
