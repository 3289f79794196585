package scheduling

import "go.uber.org/zap"

// bestEffort runs a side effect whose failure must not fail the caller's
// primary operation. Failures are logged at warn level and dropped.
func bestEffort(log *zap.Logger, op string, fn func() error, fields ...zap.Field) {
	if err := fn(); err != nil {
		fields = append(fields, zap.String("op", op), zap.Error(err))
		log.Warn("side effect failed", fields...)
	}
}
