// Package errors defines the failure taxonomy of gitcamus and the levelled
// logger used across the tool.
package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrorCode identifies the kind of failure that ended a run.
type ErrorCode int

// Repository and user errors.
const (
	ErrNotARepository ErrorCode = iota + 100
	ErrInvalidConfig
	ErrInvalidArguments
)

// Git tool errors.
const (
	ErrGitCommandFailed ErrorCode = iota + 200
	ErrCommitFailed
)

// Backend errors.
const (
	ErrBackendUnavailable ErrorCode = iota + 300
	ErrBackendError
	ErrMalformedResponse
	ErrEmptyMessage
)

// ExitCode returns the process exit status for the code.
// Every fatal condition maps to 1.
func (c ErrorCode) ExitCode() int {
	return 1
}

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotARepository:
		return "NotARepository"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrGitCommandFailed:
		return "GitCommandFailed"
	case ErrCommitFailed:
		return "CommitFailed"
	case ErrBackendUnavailable:
		return "BackendUnavailable"
	case ErrBackendError:
		return "BackendError"
	case ErrMalformedResponse:
		return "MalformedResponse"
	case ErrEmptyMessage:
		return "EmptyGeneratedMessage"
	default:
		return "Unknown"
	}
}

// AppError is a classified failure with optional cause, context and hint.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// GetExitCode returns the process exit status for err.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code.ExitCode()
	}
	return 1
}

// NewNotARepositoryError is returned when the working directory is outside
// any git work tree.
func NewNotARepositoryError(err error) *AppError {
	return &AppError{
		Code:       ErrNotARepository,
		Message:    "Not in a git repository",
		Cause:      err,
		Suggestion: "Run gitcamus from inside a git work tree",
	}
}

// NewInvalidConfigError creates an error for invalid configuration.
func NewInvalidConfigError(message string) *AppError {
	return &AppError{
		Code:       ErrInvalidConfig,
		Message:    message,
		Suggestion: "Run 'gitcamus config init' to create a valid configuration file",
	}
}

// NewGitError creates an error for git command failures.
func NewGitError(err error, output string) *AppError {
	appErr := &AppError{
		Code:    ErrGitCommandFailed,
		Message: "git command failed",
		Cause:   err,
	}
	if output != "" {
		appErr.Context = map[string]interface{}{
			"output": output,
		}
	}
	return appErr
}

// NewCommitError is returned when git rejects the commit.
func NewCommitError(err error, output string) *AppError {
	appErr := &AppError{
		Code:    ErrCommitFailed,
		Message: "git commit failed",
		Cause:   err,
	}
	if output = strings.TrimSpace(output); output != "" {
		appErr.Context = map[string]interface{}{
			"output": output,
		}
		appErr.Suggestion = output
	}
	return appErr
}

// NewBackendUnavailableError is returned when the backend host cannot be reached.
func NewBackendUnavailableError(backend, host string, err error) *AppError {
	return &AppError{
		Code:       ErrBackendUnavailable,
		Message:    fmt.Sprintf("Could not connect to %s at %s", backend, host),
		Cause:      err,
		Suggestion: fmt.Sprintf("Make sure %s is running and the host/port is correct", backend),
	}
}

// NewBackendError is returned for a non-success HTTP status from the backend.
func NewBackendError(backend string, statusCode int, body string) *AppError {
	return &AppError{
		Code:    ErrBackendError,
		Message: fmt.Sprintf("%s API error status: %d", backend, statusCode),
		Context: map[string]interface{}{
			"status": statusCode,
			"body":   body,
		},
		Suggestion: "Response body: " + body,
	}
}

// NewTimeoutError is returned when the backend does not answer in time.
func NewTimeoutError(backend string, err error) *AppError {
	return &AppError{
		Code:       ErrBackendError,
		Message:    fmt.Sprintf("%s request timed out", backend),
		Cause:      err,
		Suggestion: "Increase generation.timeout_seconds or use a smaller model",
	}
}

// NewTransportError is returned for transport failures other than an
// unreachable host, such as a dropped connection or a TLS failure.
func NewTransportError(backend string, err error) *AppError {
	return &AppError{
		Code:    ErrBackendError,
		Message: fmt.Sprintf("%s API error", backend),
		Cause:   err,
	}
}

// NewMalformedResponseError is returned when the backend reply lacks the
// expected text field.
func NewMalformedResponseError(backend string, err error) *AppError {
	return &AppError{
		Code:       ErrMalformedResponse,
		Message:    "No commit message generated",
		Cause:      err,
		Suggestion: fmt.Sprintf("The %s response did not contain a message; check the model name and backend version", backend),
	}
}

// NewMissingAPIKeyError is returned when a hosted backend has no key configured.
func NewMissingAPIKeyError(backend, envVar string) *AppError {
	return &AppError{
		Code:       ErrInvalidConfig,
		Message:    fmt.Sprintf("API key is required for the %s backend", backend),
		Suggestion: fmt.Sprintf("Set %s or run 'gitcamus config set %s.api_key <key>'", envVar, strings.ToLower(backend)),
	}
}

// NewEmptyMessageError is returned when the backend produced only whitespace.
func NewEmptyMessageError() *AppError {
	return &AppError{
		Code:    ErrEmptyMessage,
		Message: "No commit message generated",
	}
}

// FormatError formats an error for user display.
// API keys and other sensitive data are automatically masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(appErr.Message))

		if appErr.Cause != nil {
			sb.WriteString("\n  Cause: ")
			sb.WriteString(SanitizeErrorMessage(appErr.Cause.Error()))
		}

		if appErr.Suggestion != "" {
			sb.WriteString("\n  ")
			sb.WriteString(SanitizeErrorMessage(appErr.Suggestion))
		}
	} else {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(err.Error()))
	}

	return sb.String()
}

// FormatErrorVerbose formats an error with its code, cause chain and context.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString(fmt.Sprintf("Error [%s]: %s\n", appErr.Code.String(), SanitizeErrorMessage(appErr.Message)))

		if appErr.Cause != nil {
			sb.WriteString("  Error chain:\n")
			printErrorChain(&sb, appErr.Cause, 2)
		}

		if len(appErr.Context) > 0 {
			sb.WriteString("  Context:\n")
			for k, v := range appErr.Context {
				sb.WriteString(fmt.Sprintf("    %s: %v\n", k, SanitizeErrorMessage(fmt.Sprintf("%v", v))))
			}
		}

		if appErr.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", SanitizeErrorMessage(appErr.Suggestion)))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %v\n", SanitizeErrorMessage(err.Error())))
		sb.WriteString("  Error chain:\n")
		printErrorChain(&sb, err, 2)
	}

	return sb.String()
}

func printErrorChain(sb *strings.Builder, err error, indent int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	sb.WriteString(fmt.Sprintf("%s- %T: %v\n", prefix, err, SanitizeErrorMessage(err.Error())))

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		printErrorChain(sb, unwrapped, indent+1)
	}
}

// SanitizeErrorMessage masks API keys that appear in msg.
func SanitizeErrorMessage(msg string) string {
	return apiKeyPattern.ReplaceAllStringFunc(msg, MaskAPIKey)
}

// Matches OpenAI (sk-...) and Anthropic (sk-ant-...) style keys.
var apiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{20,}`)

// MaskAPIKey masks an API key for safe logging, showing only the last 4 characters.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(apiKey)-4) + apiKey[len(apiKey)-4:]
}
