// Package logging provides the leveled logger shared by all quiver clients.
// Loggers are constructed explicitly and injected; there is no package-level
// default writer beyond the standard library's.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// Level controls which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger is the logging surface injected into every client.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(fields map[string]any) Logger
	WithPrefix(prefix string) Logger
}

// Standard is a Logger backed by the standard library log package.
type Standard struct {
	out    *log.Logger
	prefix string
	level  Level
	fields map[string]any
}

// New creates a Standard logger writing to w.
func New(w io.Writer, prefix string, level Level) *Standard {
	return &Standard{
		out:    log.New(w, "", log.LstdFlags),
		prefix: prefix,
		level:  level,
	}
}

// NewStandard creates a logger writing to stderr.
func NewStandard(prefix string, level Level) *Standard {
	return New(os.Stderr, prefix, level)
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Standard {
	return New(io.Discard, "", LevelError+1)
}

func (s *Standard) Debugf(format string, args ...any) { s.logf(LevelDebug, format, args...) }
func (s *Standard) Infof(format string, args ...any)  { s.logf(LevelInfo, format, args...) }
func (s *Standard) Warnf(format string, args ...any)  { s.logf(LevelWarn, format, args...) }
func (s *Standard) Errorf(format string, args ...any) { s.logf(LevelError, format, args...) }

// With returns a logger that appends fields to every line.
func (s *Standard) With(fields map[string]any) Logger {
	merged := make(map[string]any, len(s.fields)+len(fields))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Standard{out: s.out, prefix: s.prefix, level: s.level, fields: merged}
}

// WithPrefix returns a logger with a different prefix, keeping level and
// fields.
func (s *Standard) WithPrefix(prefix string) Logger {
	return &Standard{out: s.out, prefix: prefix, level: s.level, fields: s.fields}
}

func (s *Standard) logf(level Level, format string, args ...any) {
	if level < s.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("]")
	if s.prefix != "" {
		b.WriteString(" [")
		b.WriteString(s.prefix)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(msg)
	b.WriteString(s.formatFields())
	s.out.Print(b.String())
}

func (s *Standard) formatFields() string {
	if len(s.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, s.fields[k]))
	}
	return b.String()
}
