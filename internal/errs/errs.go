// Package errs holds the two error kinds the engine surfaces to callers.
package errs

import "fmt"

// #region configuration-error

// ConfigurationError reports malformed static case data. It is raised once,
// while a case is loaded, and is fatal for that case.
type ConfigurationError struct {
	Subject string // offending entity, e.g. "hypothesis h3"
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Subject, e.Reason)
}

// Configf builds a ConfigurationError with a formatted reason.
func Configf(subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// #endregion configuration-error

// #region invalid-transition-error

// InvalidTransitionError reports an operation that would violate a lifecycle
// invariant. It is recoverable; the session is left unchanged.
type InvalidTransitionError struct {
	Op      string // "resolve", "acknowledge", "collect", ...
	Subject string
	Reason  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s %s: %s", e.Op, e.Subject, e.Reason)
}

// Transitionf builds an InvalidTransitionError with a formatted reason.
func Transitionf(op, subject, format string, args ...any) *InvalidTransitionError {
	return &InvalidTransitionError{Op: op, Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// #endregion invalid-transition-error
