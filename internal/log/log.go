// Package log provides context-aware diagnostic logging for repobee.
// Diagnostics go to stderr; primary data output lives in the output
// package.
package log

import (
	"context"
	"fmt"
	"io"
)

type ctxKey struct{}

// Logger provides diagnostic and verbose tracing output.
type Logger struct {
	out     io.Writer
	verbose bool
	quiet   bool
}

// New creates a new logger. With quiet set, only Warnf output is
// emitted; with verbose set, hook and platform call tracing is
// included.
func New(out io.Writer, verbose, quiet bool) *Logger {
	return &Logger{out: out, verbose: verbose, quiet: quiet}
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{out: io.Discard}
}

// Printf writes formatted diagnostic output unless quiet.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format, args...)
}

// Println writes a diagnostic line unless quiet.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	fmt.Fprintln(l.out, args...)
}

// Warnf writes a warning. Warnings are emitted even in quiet mode.
func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.out, "Warning: "+format+"\n", args...)
}

// Hook traces a hook dispatch: which hook fired and whose
// implementation was chosen. Only prints in verbose mode.
func (l *Logger) Hook(name, owner string) {
	if l.verbose && !l.quiet {
		fmt.Fprintf(l.out, "hook %s -> %s\n", name, owner)
	}
}

// Platform traces a platform API call. Only prints in verbose mode.
func (l *Logger) Platform(op string, args ...string) {
	if l.verbose && !l.quiet {
		fmt.Fprintf(l.out, "platform %s %v\n", op, args)
	}
}

// Verbose returns true if verbose mode is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}
