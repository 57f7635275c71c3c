package treelite

import (
	"fmt"
	"log/slog"
)

// logger is the package-level destination for the one non-fatal,
// observable event the core emits: a warning when deserializing a model
// stamped with a newer minor version than this build understands (spec.md
// §4.E/§7). The core never logs anything else. Defaults to discarding
// output so embedding a dependency-free library never prints uninvited.
var logger = slog.New(slog.DiscardHandler)

// SetLogger overrides the destination for treelite's deserialization
// warnings. Passing nil restores the default discard logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = slog.New(slog.DiscardHandler)
		return
	}
	logger = l
}

func warnf(format string, args ...any) {
	logger.Warn(fmt.Sprintf(format, args...))
}
