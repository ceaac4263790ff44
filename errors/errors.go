package errors

import (
	"encoding/json"
	"fmt"
)

// Code classifies an Error so callers can branch on the kind of failure
type Code int

const (
	// Internal is an unclassified failure
	Internal Code = iota + 1
	// Validation is malformed input to a builder or operation
	Validation
	// SchemaType is an operator that is invalid for a property's declared type
	SchemaType
	// UnknownProperty is an access to a property name absent from the schema
	UnknownProperty
	// PropertyType is a value that fails type/option validation on set
	PropertyType
	// RemoteFetch is a transport/endpoint failure during pagination
	RemoteFetch
	// RemoteWrite is a create/update failure against the remote collection
	RemoteWrite
	// NotFound is a missing record
	NotFound
)

// Error is a custom error
type Error struct {
	Code     Code           `json:"code"`
	Messages []string       `json:"messages"`
	Meta     map[string]any `json:"meta,omitempty"`
	Err      error          `json:"err,omitempty"`
}

// Error returns the Error as a json string
func (e *Error) Error() string {
	bits, _ := json.Marshal(e)
	return string(bits)
}

// WithMeta adds a key value pair to the Error's metadata and returns the Error
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[key] = value
	return e
}

// RemoveError removes the error from the Error and leaves it's messages, meta and code
func (e *Error) RemoveError() *Error {
	return &Error{
		Code:     e.Code,
		Messages: e.Messages,
		Meta:     e.Meta,
		Err:      nil,
	}
}

// New creates a new Error with the given code and formatted message
func New(code Code, msg string, args ...any) *Error {
	return &Error{
		Code:     code,
		Messages: []string{fmt.Sprintf(msg, args...)},
	}
}

// Extract extracts the custom Error from the given error
func Extract(err error) *Error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code: Internal,
			Err:  err,
		}
	}
	return e
}

// Is returns true if the error is an Error with the given code
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code == code
}

// Wrap wraps the given error and returns a new one
func Wrap(err error, code Code, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if ok {
		if msg != "" {
			e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
		}
		if e.Err == nil {
			e.Err = err
		}
		if code > 0 {
			e.Code = code
		}
		return e
	}
	e = &Error{
		Code: code,
		Err:  err,
	}
	if msg != "" {
		e.Messages = append(e.Messages, fmt.Sprintf(msg, args...))
	}
	return e
}
