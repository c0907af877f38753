// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Configuration is applied at logger creation time using functional options.
// A [Logger] is immutable once made; [Logger.Wrap] and [Logger.With] return
// new loggers.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("parsed", slog.String("file", path))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// # Zero Value
//
// The zero [Logger] discards everything. Libraries accept a Logger through
// an option and log unconditionally; nothing is written unless the caller
// supplied a configured one.
//
// # Package-Level Logger
//
// The package keeps a default logger writing to standard error. [Config]
// rebuilds it with additional options, and functions such as [Info] and
// [DebugContext] write through it. Context-unaware functions use the context
// returned by [DefaultContextProvider].
//
// # Levels
//
// Five levels are named: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], and [LevelError]. Trace sits below slog's debug level and is
// used for per-parse diagnostics.
//
// # Output Formats
//
// [FormatText] writes key=value pairs and [FormatJSON] writes one object per
// record. With [WithPretty] enabled (the default), output is colorized when
// the destination is a terminal and JSON records are indented.
package log
