package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMust(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)).Sugar()

	assert.NotPanics(t, func() { Must(log, nil, "open ledger") })
	assert.Zero(t, logs.Len())

	assert.Panics(t, func() { Must(log, errors.New("disk full"), "open ledger") })
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "cannot open ledger", entry.Message)
	assert.Equal(t, zapcore.FatalLevel, entry.Level)
	assert.Equal(t, "disk full", entry.ContextMap()["error"])
}
