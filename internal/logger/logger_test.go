package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Development(t *testing.T) {
	log, err := New("development", "router")
	require.NoError(t, err)

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_Production(t *testing.T) {
	for _, env := range []string{"production", "staging", ""} {
		log, err := New(env, "router")
		require.NoError(t, err, env)

		assert.False(t, log.Core().Enabled(zapcore.DebugLevel), env)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel), env)
	}
}
