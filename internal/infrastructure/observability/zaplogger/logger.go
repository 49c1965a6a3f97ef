package zaplogger

import (
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.uber.org/zap"
)

type logger struct{ l *zap.Logger }

// New adapts l to the observability.Logger port. A nil l discards everything.
func New(l *zap.Logger, fixed ...observability.Field) observability.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if len(fixed) > 0 {
		l = l.With(toZapFields(fixed)...)
	}
	return &logger{l: l}
}

func (z *logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return &logger{l: z.l}
	}
	return &logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *logger) Debug(msg string, fields ...observability.Field) {
	z.l.Debug(msg, toZapFields(fields)...)
}
func (z *logger) Info(msg string, fields ...observability.Field) {
	z.l.Info(msg, toZapFields(fields)...)
}
func (z *logger) Warn(msg string, fields ...observability.Field) {
	z.l.Warn(msg, toZapFields(fields)...)
}
func (z *logger) Error(msg string, fields ...observability.Field) {
	z.l.Error(msg, toZapFields(fields)...)
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
