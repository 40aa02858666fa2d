package errors

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelError logs only errors.
	LogLevelError LogLevel = iota
	// LogLevelWarn logs warnings and errors.
	LogLevelWarn
	// LogLevelInfo logs info, warnings, and errors.
	LogLevelInfo
	// LogLevelDebug logs everything including debug messages.
	LogLevelDebug
)

// String returns the string representation of LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

var levelStyles = map[LogLevel]lipgloss.Style{
	LogLevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	LogLevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	LogLevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	LogLevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

// Logger writes levelled diagnostics. Nothing it prints goes to stdout.
type Logger struct {
	mu      sync.Mutex
	output  io.Writer
	level   LogLevel
	verbose bool
	color   bool
}

var defaultLogger = &Logger{
	output: os.Stderr,
	level:  LogLevelError,
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(verbose bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.verbose = verbose
	if verbose {
		defaultLogger.level = LogLevelDebug
	} else {
		defaultLogger.level = LogLevelError
	}
}

// IsVerbose returns whether verbose logging is enabled.
func IsVerbose() bool {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.verbose
}

// SetColor toggles coloured level tags on the default logger.
func SetColor(enabled bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.color = enabled
}

// SetOutput sets the output writer for the logger.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(output io.Writer, verbose bool) *Logger {
	level := LogLevelError
	if verbose {
		level = LogLevelDebug
	}
	return &Logger{
		output:  output,
		level:   level,
		verbose: verbose,
	}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.level {
		return
	}

	tag := level.String()
	if l.color {
		tag = levelStyles[level].Render(tag)
	}

	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(l.output, "[%s] %s: %s\n", timestamp, tag, fmt.Sprintf(format, args...))
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, format, args...)
}

// LogAPIRequest logs an outgoing backend request in verbose mode.
func (l *Logger) LogAPIRequest(backend, endpoint, model, requestID string, promptLength int) {
	if !l.verbose {
		return
	}
	l.Debug("Sending request to %s API: endpoint=%s, model=%s, request_id=%s, prompt_length=%d",
		backend, endpoint, model, requestID, promptLength)
}

// LogAPIResponse logs a backend response in verbose mode.
func (l *Logger) LogAPIResponse(backend string, statusCode int, responseLength int, duration time.Duration) {
	if !l.verbose {
		return
	}
	l.Debug("API Response: backend=%s, status=%d, response_length=%d, duration=%v",
		backend, statusCode, responseLength, duration)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// LogAPIRequest logs an outgoing backend request in verbose mode.
func LogAPIRequest(backend, endpoint, model, requestID string, promptLength int) {
	defaultLogger.LogAPIRequest(backend, endpoint, model, requestID, promptLength)
}

// LogAPIResponse logs a backend response in verbose mode.
func LogAPIResponse(backend string, statusCode int, responseLength int, duration time.Duration) {
	defaultLogger.LogAPIResponse(backend, statusCode, responseLength, duration)
}
