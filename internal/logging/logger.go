package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger writes levelled log lines. Every call produces exactly one line and
// lines from concurrent callers never interleave.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	verbose bool
	colors  map[string]*color.Color
}

// Options controls Logger behaviour
type Options struct {
	Verbose bool
	Color   bool
}

// New creates a logger writing normal lines to out and errors to errOut
func New(out, errOut io.Writer, opts Options) *Logger {
	l := &Logger{
		out:     out,
		errOut:  errOut,
		verbose: opts.Verbose,
		colors: map[string]*color.Color{
			"INFO":    color.New(color.FgBlue, color.Bold),
			"SUCCESS": color.New(color.FgGreen, color.Bold),
			"WARN":    color.New(color.FgYellow, color.Bold),
			"ERROR":   color.New(color.FgRed, color.Bold),
			"DEBUG":   color.New(color.FgCyan),
		},
	}
	for _, c := range l.colors {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return l
}

// NewConsole creates a logger writing everything to w. mode is auto, always
// or never; auto colours only when w itself is a terminal.
func NewConsole(w io.Writer, mode string, verbose bool) *Logger {
	enable := false
	switch mode {
	case "always":
		enable = true
	case "never":
		enable = false
	default:
		enable = isTerminal(w) && os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
	}
	return New(w, w, Options{Verbose: verbose, Color: enable})
}

// isTerminal reports whether w is a file attached to a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *Logger) line(level, text string) {
	tag := "[" + level + "]"
	if c, ok := l.colors[level]; ok {
		tag = c.Sprint(tag)
	}
	msg := tag + " " + text + "\n"

	out := l.out
	if level == "ERROR" {
		out = l.errOut
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(out, msg)
}

// Info logs at INFO level
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("INFO", fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level
func (l *Logger) Success(format string, args ...interface{}) {
	l.line("SUCCESS", fmt.Sprintf(format, args...))
}

// Warn logs at WARN level
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("WARN", fmt.Sprintf(format, args...))
}

// Error logs at ERROR level to the error writer
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("ERROR", fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level only when verbose
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.line("DEBUG", fmt.Sprintf(format, args...))
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(io.Discard, io.Discard, Options{})
}
