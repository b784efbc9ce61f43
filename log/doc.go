// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are created with [Make] and configured with functional options
// applied at creation time:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithCaller(true))
//
//	logger.Info("store loaded", slog.Int("bindings", n))
//
// A package-level default logger backs the [Debug], [Info], [Warn] and
// [Error] functions. It is reconfigured in place with [Config].
//
// The zero [Logger] discards everything, so libraries may hold one without
// checking whether the caller configured logging.
//
// # Levels
//
// Five levels are defined: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn] and [LevelError]. Trace sits below slog's Debug level and is
// used by package lang for per-evaluation records.
//
// # Output Formats
//
// [FormatJSON] (default) and [FormatText]. With [WithPretty] enabled the
// handlers colorize keys and values; colors are suppressed automatically when
// the output is not a terminal (see [github.com/fatih/color.NoColor]).
package log
