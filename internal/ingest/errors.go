package ingest

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindMalformed     Kind = "malformed_payload"
	KindEmpty         Kind = "empty_payload"
	KindMissingFields Kind = "missing_fields"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrEmptyPayload     = errors.New("empty payload")
	ErrMissingFields    = errors.New("missing required fields")
)

// ValidationError is returned for every rejected upload. Reason is meant for
// the person who uploaded the file.
type ValidationError struct {
	Kind   Kind
	Reason string
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case KindMalformed:
		return target == ErrMalformedPayload
	case KindEmpty:
		return target == ErrEmptyPayload
	case KindMissingFields:
		return target == ErrMissingFields
	}
	return false
}

func malformed(err error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindMalformed, Reason: fmt.Sprintf(format, args...), Err: err}
}

func empty() *ValidationError {
	return &ValidationError{Kind: KindEmpty, Reason: "no data found in the file"}
}

func missing(fields []string) *ValidationError {
	return &ValidationError{
		Kind:   KindMissingFields,
		Reason: "missing required fields: " + strings.Join(fields, ", "),
		Fields: fields,
	}
}
