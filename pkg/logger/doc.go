// Package logger builds the *slog.Logger used across notifykit and provides
// attribute helpers that keep key names consistent between components.
//
// New creates a logger configured by Option functions: output format (text or
// json), minimum level, static attributes and ContextExtractor callbacks that
// inject values stored in a context.Context on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "notifywatch"),
//	    logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "Failed to refresh unread count",
//	    logger.Component("inbox"),
//	    logger.Error(err),
//	)
//
// Helpers such as Error and UserID return an empty slog.Attr for nil values,
// which slog drops, so callers can pass possibly-nil values without checks.
//
// Discard returns a logger that drops everything; components use it in tests
// and when a nil logger is supplied.
package logger
