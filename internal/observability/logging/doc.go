// Package logging provides structured logging utilities with context propagation.
//
// Both binaries log through log/slog. feedwatch writes JSON to stdout;
// feedview owns the terminal, so it writes JSON to a file instead
// (NewFileLogger) or discards logs entirely.
//
// Example usage:
//
//	logger := logging.NewLogger()
//	logger.Info("feedwatch started", slog.String("mode", "latest"))
//
//	func handle(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("refresh requested")
//	}
package logging
