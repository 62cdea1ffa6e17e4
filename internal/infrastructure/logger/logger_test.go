package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rentora/backend/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	l := New(config.LogConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNewForEnvironment(t *testing.T) {
	assert.NotNil(t, NewForEnvironment("production"))
	assert.NotNil(t, NewForEnvironment("development"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{"warning", "warn"},
		{"error", "error"},
		{"bogus", "info"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in).String(), "level %q", tt.in)
	}
}

func TestContextRoundTrip(t *testing.T) {
	base := zap.NewNop()
	ctx, enriched := WithRequestID(context.Background(), base, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
