package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger writes one diagnostic line per call to an io.Writer:
//
//	[warn] engine: evaluation of https://github.com/o/r/issues/1 failed: boom
//
// Diagnostics go to stderr by default so structured output on stdout stays clean.
// Debug lines are only written when the logger is verbose.
type Logger struct {
	mu      *sync.Mutex
	w       io.Writer
	min     Level
	scope   string
	colored bool
}

type options struct {
	verbose bool
	colored *bool
}

type Option func(*options)

func WithVerbose(enabled bool) Option {
	return func(o *options) { o.verbose = enabled }
}

// WithColor forces level-tag coloring on or off. By default tags are colored only
// when writing to a terminal stderr.
func WithColor(enabled bool) Option {
	return func(o *options) { o.colored = &enabled }
}

func New(w io.Writer, opts ...Option) *Logger {
	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if w == nil {
		w = os.Stderr
	}

	min := LevelInfo
	if o.verbose {
		min = LevelDebug
	}

	colored := w == os.Stderr && !color.NoColor
	if o.colored != nil {
		colored = *o.colored
	}

	return &Logger{mu: &sync.Mutex{}, w: w, min: min, colored: colored}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{mu: &sync.Mutex{}, w: io.Discard, min: LevelError + 1}
}

// Named returns a logger sharing the same writer whose lines carry scope as prefix.
func (l *Logger) Named(scope string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	if l.scope != "" {
		child.scope = l.scope + "." + scope
	} else {
		child.scope = scope
	}
	return &child
}

func (l *Logger) Verbose() bool {
	return l != nil && l.min <= LevelDebug
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.min {
		return
	}

	var b strings.Builder
	b.WriteString(l.tag(level))
	b.WriteByte(' ')
	if l.scope != "" {
		b.WriteString(l.scope)
		b.WriteString(": ")
	}
	b.WriteString(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, b.String())
}

func (l *Logger) tag(level Level) string {
	tag := "[" + level.String() + "]"
	if !l.colored {
		return tag
	}
	var c *color.Color
	switch level {
	case LevelDebug:
		c = color.New(color.Faint)
	case LevelInfo:
		c = color.New(color.FgCyan)
	case LevelWarn:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed, color.Bold)
	}
	c.EnableColor()
	return c.Sprint(tag)
}
