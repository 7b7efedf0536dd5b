package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is returned when a request misses required fields or
// carries malformed ones. Fields maps the json field name to the failed rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// NewValidation builds a ValidationError, returning nil for an empty map so
// callers can write `if err := apperror.NewValidation(v); err != nil`.
func NewValidation(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// UploadError wraps a failure of the blob store while transferring a file.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload %s: %v", e.Op, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// StoreError wraps a failure of the metadata store.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}
func (e *StoreError) Unwrap() error { return e.Err }

// ConfigurationError reports missing service credentials. Its message names
// the setting but never its value.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string { return "missing configuration: " + e.Setting }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}

func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}

func IsUpload(err error) bool {
	var u *UploadError
	return errors.As(err, &u)
}
