// Package apperr defines the error taxonomy shared by the ingestion and
// refinement components. Every error here is fatal at the point it is
// detected; callers match them with errors.As.
package apperr

import (
	"fmt"
	"strings"
)

// ValidationError reports bad user input such as an inverted date range.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// SchemaError reports required columns that are absent from a dataset.
// Available lists the columns that were actually present.
type SchemaError struct {
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: missing column(s) %s; available columns: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// RemoteServiceError wraps an unexpected failure from the object store, the
// catalog, the job service or a market-data provider.
type RemoteServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a missing required setting or job parameter.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Key)
}

// Remote wraps err as a RemoteServiceError. A nil err stays nil.
func Remote(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteServiceError{Service: service, Op: op, Err: err}
}
