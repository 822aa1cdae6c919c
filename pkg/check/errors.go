// SPDX-License-Identifier: GPL-3.0-or-later

package check

import (
	"errors"
	"fmt"
)

// ErrorKind tells the reader whether a check was misconfigured, could not reach
// its target, or reached it and had a query rejected.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindConnection    ErrorKind = "connection"
	KindQuery         ErrorKind = "query"
)

// ConfigError is returned for missing or invalid input, before any I/O happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid '%s': %s", e.Field, e.Reason)
}

// ConnectionError is returned when the session to the target could not be established.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError is returned when a query failed on an established session.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("query: %v", e.Err)
	}
	return fmt.Sprintf("query '%s': %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func NewConfigError(field, format string, a ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

func NewQueryError(query string, err error) error {
	return &QueryError{Query: query, Err: err}
}

// KindOf classifies err. Errors that are not one of the typed errors are
// treated as query failures: they happened while talking to the target.
func KindOf(err error) ErrorKind {
	var (
		cfgErr  *ConfigError
		connErr *ConnectionError
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &connErr):
		return KindConnection
	default:
		return KindQuery
	}
}

func isTyped(err error) bool {
	var (
		cfgErr   *ConfigError
		connErr  *ConnectionError
		queryErr *QueryError
	)
	return errors.As(err, &cfgErr) || errors.As(err, &connErr) || errors.As(err, &queryErr)
}
