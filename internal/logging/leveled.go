package logging

import (
	"fmt"
	"log"
)

// Leveled adds level-tagged key/value logging on top of a standard logger.
// Lines look like: [INFO] message key value key value
// Debug lines are dropped unless Verbose is set.
type Leveled struct {
	*log.Logger
	Verbose bool
}

// NewLeveled wraps logger; a nil logger falls back to log.Default()
func NewLeveled(logger *log.Logger) *Leveled {
	if logger == nil {
		logger = log.Default()
	}
	return &Leveled{Logger: logger}
}

func (l *Leveled) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *Leveled) Warn(msg string, args ...interface{}) {
	l.logWithLevel("WARN", msg, args...)
}

func (l *Leveled) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *Leveled) Debug(msg string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.logWithLevel("DEBUG", msg, args...)
}

func (l *Leveled) logWithLevel(level, msg string, args ...interface{}) {
	parts := make([]interface{}, 0, len(args)+2)
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}
