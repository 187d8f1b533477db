package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() { log = prev })

	l, err := InitLogger(&LogConfig{Level: "warn", Environment: "production", ServiceName: "vendor-api"})
	require.NoError(t, err)
	assert.Same(t, l, GetLogger())
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = InitLogger(&LogConfig{Level: "nonsense", Environment: "development"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, GetLogger(), FromContext(ctx))

	custom := zap.NewExample()
	assert.Same(t, custom, FromContext(WithContext(ctx, custom)))
}
