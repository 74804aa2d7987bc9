// Package logger builds the process logger. Protocol output owns stdout, so
// logs go to stderr unless told otherwise.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Handler selects the log output format.
type Handler int

const (
	DevHandler Handler = iota
	TextHandler
	JSONHandler
)

const (
	DefaultLevel = slog.LevelInfo

	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
)

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return DefaultLevel
	}
}

// ParseHandler maps a handler name to a Handler, defaulting to dev.
func ParseHandler(s string) Handler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSONHandler
	case "txt", "text":
		return TextHandler
	default:
		return DevHandler
	}
}

type Opt func(o *opts)

type opts struct {
	writer  io.Writer
	level   slog.Level
	handler Handler
}

func WithLevel(lvl slog.Level) Opt {
	return func(o *opts) { o.level = lvl }
}

func WithWriter(w io.Writer) Opt {
	return func(o *opts) { o.writer = w }
}

func WithHandler(h Handler) Opt {
	return func(o *opts) { o.handler = h }
}

// New returns a logger writing to stderr at info level with the dev handler,
// unless overridden.
func New(options ...Opt) *slog.Logger {
	o := &opts{
		writer:  os.Stderr,
		level:   DefaultLevel,
		handler: DevHandler,
	}
	for _, apply := range options {
		apply(o)
	}

	hopts := slog.HandlerOptions{
		Level: o.level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := attr.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					return slog.String(attr.Key, "TRACE")
				}
			}
			return attr
		},
	}

	switch o.handler {
	case DevHandler:
		return slog.New(tint.NewHandler(o.writer, &tint.Options{
			Level:      o.level,
			TimeFormat: "[15:04:05.000]",
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey && len(groups) == 0 {
					if lvl, ok := a.Value.Any().(slog.Level); ok {
						// keep default color for warn and error
						switch lvl {
						case LevelTrace:
							return tint.Attr(13, slog.String(a.Key, "TRC"))
						case LevelDebug:
							return tint.Attr(3, slog.String(a.Key, "DBG"))
						case LevelInfo:
							return tint.Attr(14, slog.String(a.Key, "INF"))
						}
					}
				}
				return a
			},
		}))
	case TextHandler:
		return slog.New(slog.NewTextHandler(o.writer, &hopts))
	default:
		return slog.New(slog.NewJSONHandler(o.writer, &hopts))
	}
}

// Void returns a logger that discards everything.
func Void() *slog.Logger {
	return New(WithWriter(io.Discard), WithHandler(TextHandler))
}
