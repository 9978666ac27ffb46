package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Levels(t *testing.T) {
	defer Set(nil)

	require.NoError(t, Init("warn", "production"))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Get().Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, Init("bogus", "development"))
	assert.True(t, Get().Core().Enabled(zapcore.InfoLevel))
}

func TestGet_FallbackIsNop(t *testing.T) {
	Set(nil)
	assert.NotNil(t, Get())
	assert.NoError(t, Sync())
}

func TestWithContext_AddsScanID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(nil)

	ctx := WithScanID(context.Background(), "scan-42")
	assert.Equal(t, "scan-42", GetScanID(ctx))

	WithContext(ctx).Info("scan started", Market("KRW-BTC"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "scan-42", fields["scan_id"])
	assert.Equal(t, "KRW-BTC", fields["market"])
}

func TestGetScanID_Missing(t *testing.T) {
	assert.Equal(t, "", GetScanID(context.Background()))
}
