package types

import "fmt"

// ErrConfiguration indicates a required setting or credential is absent.
type ErrConfiguration struct {
	Setting string
	Hint    string
}

func (e *ErrConfiguration) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("configuration error: %s is not configured (%s)", e.Setting, e.Hint)
	}
	return fmt.Sprintf("configuration error: %s is not configured", e.Setting)
}

// ErrUpstreamUnavailable wraps a failure of the oracle or the provider.
// It is always recovered locally.
type ErrUpstreamUnavailable struct {
	Service string
	Err     error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error { return e.Err }

// ErrValidation indicates a caller supplied an invalid request.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates an entity does not exist or is not visible to the caller.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
