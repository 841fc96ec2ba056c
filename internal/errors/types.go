package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeWatch    ErrorType = "watch"
	ErrorTypeSync     ErrorType = "sync"
	ErrorTypePublish  ErrorType = "publish"
	ErrorTypeInternal ErrorType = "internal"
)

// LinkwatchError is a structured error type with context.
type LinkwatchError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *LinkwatchError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LinkwatchError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *LinkwatchError) Is(target error) bool {
	var t *LinkwatchError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *LinkwatchError) WithContext(key string, value interface{}) *LinkwatchError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath adds the filesystem path the error relates to.
func (e *LinkwatchError) WithPath(path string) *LinkwatchError {
	e.Path = path

	return e
}

// WithComponent adds component context.
func (e *LinkwatchError) WithComponent(component string) *LinkwatchError {
	e.Component = component

	return e
}

// Error creation functions

// NewConfigError creates a configuration error. Configuration errors are not
// recoverable: the watch-root table must be fully resolved before any
// classification result can be trusted.
func NewConfigError(code, message string, cause error) *LinkwatchError {
	return &LinkwatchError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *LinkwatchError {
	return &LinkwatchError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewWatchError creates a watch error.
func NewWatchError(code, message string, cause error) *LinkwatchError {
	return &LinkwatchError{
		Type:        ErrorTypeWatch,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewSyncError creates a mirror-sync error. Sync errors are recoverable: a
// failed copy leaves the destination stale until a later poll tick succeeds.
func NewSyncError(code, message string, cause error) *LinkwatchError {
	return &LinkwatchError{
		Type:        ErrorTypeSync,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewPublishError creates a publish error.
func NewPublishError(code, message string, cause error) *LinkwatchError {
	return &LinkwatchError{
		Type:        ErrorTypePublish,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *LinkwatchError {
	return &LinkwatchError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var le *LinkwatchError
	if errors.As(err, &le) {
		return le.Recoverable
	}

	return false
}

// IsType checks whether an error is of a specific type.
func IsType(err error, errorType ErrorType) bool {
	var le *LinkwatchError
	if errors.As(err, &le) {
		return le.Type == errorType
	}

	return false
}
