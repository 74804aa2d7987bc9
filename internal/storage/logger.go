package storage

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger routes badger's printf-style logging to slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(msg(format, args))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(msg(format, args))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(msg(format, args))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(msg(format, args))
}

func msg(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
