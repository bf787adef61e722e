package middleware

import (
	"log/slog"
	"time"

	"github.com/relight-dev/relight/pkg/server"
)

// Logging returns middleware that logs each dispatched event with its
// outcome and duration. A nil logger uses slog.Default.
func Logging(logger *slog.Logger) server.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx *server.Ctx, next func() error) error {
		start := time.Now()
		err := next()
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("event failed",
				"event", ctx.EventName(),
				"session_id", ctx.SessionID(),
				"duration", elapsed,
				"error", err)
			return err
		}
		logger.Debug("event handled",
			"event", ctx.EventName(),
			"session_id", ctx.SessionID(),
			"duration", elapsed)
		return nil
	}
}
