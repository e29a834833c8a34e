// Package common defines the error types shared by the sweeper, its
// repositories and the process entrypoint. Callers should use errors.As and
// errors.Is to match them.
package common

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDriver is returned for a driver name no dialect is registered under.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Process exit statuses.
const (
	ExitOK         = 0
	ExitConnection = 1
	ExitFailure    = 2
)

// ConnectionError reports that the token store could not be reached or
// rejected the credentials. Nothing has been queried when it is returned.
type ConnectionError struct {
	Driver string
	Addr   string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s %s: %v", e.Driver, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed statement that is not tied to a single token:
// reading the reference time, selecting candidates, migrations and
// transaction control.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// InsertError reports a failed insert of the expired record for TokenID.
type InsertError struct {
	TokenID string
	Err     error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert expired record for token %q: %v", e.TokenID, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return ExitConnection
	}
	return ExitFailure
}

// FailureKind names the error class for metrics labels and log attributes.
func FailureKind(err error) string {
	var (
		connErr   *ConnectionError
		queryErr  *QueryError
		insertErr *InsertError
	)
	switch {
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &insertErr):
		return "insert"
	case errors.As(err, &queryErr):
		return "query"
	default:
		return "other"
	}
}
