package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field{}, l.fields...), fields...)}
}

func TestFromOr_PrefersContextLogger(t *testing.T) {
	stored := &recordingLogger{Logger: observability.NopLogger()}
	fallback := &recordingLogger{Logger: observability.NopLogger()}

	ctx := With(context.Background(), stored)

	assert.Same(t, stored, FromOr(ctx, fallback))
	assert.Same(t, fallback, FromOr(context.Background(), fallback))
}

func TestFromOr_NilFallbackReturnsNop(t *testing.T) {
	assert.NotNil(t, FromOr(context.Background(), nil))
}

func TestWith_IgnoresNilLogger(t *testing.T) {
	ctx := With(context.Background(), nil)
	assert.Nil(t, From(ctx))
}

func TestEnrich_BindsFieldsAndStoresLogger(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}

	ctx, logger := Enrich(context.Background(), base, observability.F("request_id", "r-1"))

	rec, ok := logger.(*recordingLogger)
	if assert.True(t, ok) {
		assert.Equal(t, []observability.Field{observability.F("request_id", "r-1")}, rec.fields)
	}
	assert.Same(t, logger, From(ctx))
}
