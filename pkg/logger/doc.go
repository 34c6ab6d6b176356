// Package logger builds the structured loggers used across the storefront.
//
// Loggers are log/slog loggers. Request-scoped values are attached through
// context extractors, evaluated on every record:
//
//	log := logger.New(logger.Config{Level: "debug"},
//		logger.RequestIDExtractor(),
//		logger.UsernameExtractor(),
//	)
//	ctx = logger.WithRequestID(ctx, "01HX...")
//	log.InfoContext(ctx, "order placed") // carries request_id
//
// When Config.Sentry.DSN is set, warnings and errors are also shipped to
// Sentry. Without a DSN the logger writes to its output only.
package logger
