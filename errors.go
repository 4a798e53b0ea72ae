package autoapi

import (
	"errors"
	"fmt"
)

// ErrPartialFailure is attached to a FAIL dispatch when a response splitter
// reports failed records without supplying its own error.
var ErrPartialFailure = errors.New("autoapi: some records failed")

// ConfigError reports an invalid configuration detected at construction,
// before any action can be dispatched. It signals a programming error, not
// a runtime condition.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("autoapi: invalid configuration: %s: %s", e.Field, e.Reason)
}
