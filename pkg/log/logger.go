// Package log configures structured logging for dogkit on top of
// log/slog, with a handler that expands cockroachdb/errors stack
// traces into a dedicated attribute.
package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs a JSON slog handler at the given level as the
// process default logger.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level: %s", level))
	}
}

const (
	// ErrAttrKey is the attribute key used for error values.
	ErrAttrKey = "error"
	// StacktraceAttrKey is the attribute key the handler fills with the
	// extracted stack trace.
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps err so the stacktrace handler can pick it up.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
