package zaplogger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

func TestLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core), observability.F("service", "order-service"))

	log.With(observability.F("use_case", "order.create")).
		Info("use_case_done", observability.F("outcome", "success"))
	log.Warn("event_handler_error", observability.F("error", errors.New("boom")))

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "use_case_done", first.Message)
	assert.Equal(t, zapcore.InfoLevel, first.Level)
	assert.Equal(t, map[string]any{
		"service":  "order-service",
		"use_case": "order.create",
		"outcome":  "success",
	}, first.ContextMap())

	second := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, second.Level)
	assert.Equal(t, "boom", second.ContextMap()["error"])
}

func TestNilLoggerDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil).Error("ignored")
	})
}
