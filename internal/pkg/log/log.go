package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

const contextKeyRequestID = "request_id"

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stdout
	debug  bool
	closer io.Closer
)

// Options configures the log sink
type Options struct {
	// File enables a rotating log file in addition to stdout when non-empty
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Debug      bool
}

// Configure replaces the log sink. Safe to call more than once.
func Configure(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}

	debug = opts.Debug
	if opts.File == "" {
		out = os.Stdout
		return
	}

	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	closer = rotating
	out = io.MultiWriter(os.Stdout, rotating)
	// escape codes are noise in a file
	color.NoColor = true
}

// SetOutput redirects all log lines to w
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// getRequestID retrieves request ID from context
func getRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// formatLog formats log message with optional request ID
func formatLog(level string, requestID string, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if requestID != "" {
		return fmt.Sprintf("[%s] [req_id=%s] %s", level, requestID, msg)
	}
	return fmt.Sprintf("[%s] %s", level, msg)
}

func emit(tag string, line string) {
	w := writer()
	fmt.Fprintf(w, "%s ", tag)
	fmt.Fprintln(w, line)
}

// Info log information
func Info(format string, a ...interface{}) {
	info := color.New(color.FgWhite, color.BgGreen).SprintFunc()
	emit(info("[INFO] "), fmt.Sprintf(format, a...))
}

// InfoWithContext logs information with context (includes request ID if available)
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	info := color.New(color.FgWhite, color.BgGreen).SprintFunc()
	emit(info("[INFO] "), formatLog("INFO", getRequestID(ctx), format, a...))
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	warn := color.New(color.FgWhite, color.BgYellow).SprintFunc()
	emit(warn("[WARN] "), fmt.Sprintf(format, a...))
}

// WarnWithContext logs warning with context (includes request ID if available)
func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	warn := color.New(color.FgWhite, color.BgYellow).SprintFunc()
	emit(warn("[WARN] "), formatLog("WARN", getRequestID(ctx), format, a...))
}

// Error log error
func Error(format string, a ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	emit(red("[Error]"), fmt.Sprintf(format, a...))
}

// ErrorWithContext logs error with context (includes request ID if available)
func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	emit(red("[Error]"), formatLog("ERROR", getRequestID(ctx), format, a...))
}

// Dump writes a spew dump of v when debug logging is on
func Dump(label string, v interface{}) {
	mu.RLock()
	enabled := debug
	mu.RUnlock()
	if !enabled {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	emit(cyan("[DEBUG]"), label+"\n"+spew.Sdump(v))
}
