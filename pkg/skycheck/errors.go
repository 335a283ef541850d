package skycheck

import (
	"errors"
	"fmt"
)

// ErrorCategory categorizes errors for handling and reporting.
type ErrorCategory string

const (
	// ErrCategoryAuth indicates an authentication or authorization failure.
	ErrCategoryAuth ErrorCategory = "auth"
	// ErrCategoryNetwork indicates a network-related failure.
	ErrCategoryNetwork ErrorCategory = "network"
	// ErrCategoryValidation indicates invalid input or configuration.
	ErrCategoryValidation ErrorCategory = "validation"
	// ErrCategoryNotFound indicates a provider or resource was not found.
	ErrCategoryNotFound ErrorCategory = "not_found"
	// ErrCategoryUnsupported indicates a capability the provider does not
	// support. The probe adapter treats this as a skip, not a failure.
	ErrCategoryUnsupported ErrorCategory = "unsupported"
	// ErrCategoryTimeout indicates an operation timed out.
	ErrCategoryTimeout ErrorCategory = "timeout"
	// ErrCategoryInternal indicates an internal error.
	ErrCategoryInternal ErrorCategory = "internal"
)

// CheckError is a structured error with category and context.
type CheckError struct {
	// Category classifies the error type.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// Provider is the provider where the error occurred, if any.
	Provider CloudProvider

	// Capability is the capability being probed, if any.
	Capability Capability

	// Cause is the underlying error.
	Cause error

	// Details contains additional error context.
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Category, e.Message)
	if e.Provider != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.Provider, e.Category, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error's category.
func (e *CheckError) Is(target error) bool {
	var ce *CheckError
	if errors.As(target, &ce) {
		return e.Category == ce.Category
	}
	return false
}

// NewError creates a new CheckError.
func NewError(category ErrorCategory, message string) *CheckError {
	return &CheckError{
		Category: category,
		Message:  message,
		Details:  make(map[string]interface{}),
	}
}

// WithProvider sets the provider.
func (e *CheckError) WithProvider(p CloudProvider) *CheckError {
	e.Provider = p
	return e
}

// WithCapability sets the capability.
func (e *CheckError) WithCapability(c Capability) *CheckError {
	e.Capability = c
	return e
}

// WithCause sets the underlying error.
func (e *CheckError) WithCause(err error) *CheckError {
	e.Cause = err
	return e
}

// WithDetail adds a detail to the error.
func (e *CheckError) WithDetail(key string, value interface{}) *CheckError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common error types

// ErrAuth creates an authentication error.
func ErrAuth(message string) *CheckError {
	return NewError(ErrCategoryAuth, message)
}

// ErrNetwork creates a network error.
func ErrNetwork(message string) *CheckError {
	return NewError(ErrCategoryNetwork, message)
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *CheckError {
	return NewError(ErrCategoryValidation, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(resourceType, resourceID string) *CheckError {
	return NewError(ErrCategoryNotFound, fmt.Sprintf("%s not found: %s", resourceType, resourceID))
}

// ErrUnsupported creates an unsupported-capability error. Providers return
// this from CheckCredentials for capabilities they do not expose.
func ErrUnsupported(p CloudProvider, c Capability) *CheckError {
	return NewError(ErrCategoryUnsupported, fmt.Sprintf("capability %s not supported", c)).
		WithProvider(p).WithCapability(c)
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *CheckError {
	return NewError(ErrCategoryTimeout, message)
}

// ErrInternal creates an internal error.
func ErrInternal(message string) *CheckError {
	return NewError(ErrCategoryInternal, message)
}

// IsCategory checks if an error is of a specific category.
func IsCategory(err error, category ErrorCategory) bool {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Category == category
	}
	return false
}

// NoCloudAccessError is the terminal condition of a check run: no provider
// passed any requested capability, so the platform cannot schedule work
// anywhere. It is distinct from any single capability having an empty
// enablement set.
type NoCloudAccessError struct {
	// Hint carries a remediation hint for the operator.
	Hint string
}

// Error implements the error interface.
func (e *NoCloudAccessError) Error() string {
	msg := "no cloud is enabled; unable to run any task"
	if e.Hint != "" {
		msg = fmt.Sprintf("%s. %s", msg, e.Hint)
	}
	return msg
}
