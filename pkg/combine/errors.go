// File: pkg/combine/errors.go
package combine

import (
	"errors"
	"fmt"
)

// Configuration problems detected before any traversal starts.
var (
	ErrInvalidSize   = errors.New("invalid size")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidTarget = errors.New("invalid target path")
)

// ConfigError reports a command-line value that cannot be used.
type ConfigError struct {
	Field string // Flag or argument name.
	Value string // Value as given.
	Err   error  // One of the ErrInvalid* sentinels, possibly wrapped.
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
