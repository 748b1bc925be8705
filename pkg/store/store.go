package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Inserter writes one record into a named table of the hosted store.
type Inserter interface {
	Insert(ctx context.Context, table string, record any) error
}

// Client is an Inserter that can also report whether calls are currently flowing.
type Client interface {
	Inserter
	Healthy() bool
	BreakerState() string
}

var (
	// ErrRejected means the store refused the record. Retrying the same record will not help.
	ErrRejected = errors.New("store rejected the record")

	// ErrUnavailable means the store could not be reached or is shedding load.
	ErrUnavailable = errors.New("store is unavailable")
)

// InsertError carries the upstream status for a failed insert.
type InsertError struct {
	Table      string
	StatusCode int
	Body       string
	Err        error
}

func (e *InsertError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("insert into %q failed with status %d: %v", e.Table, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("insert into %q failed: %v", e.Table, e.Err)
}

func (e *InsertError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same insert may succeed on a later attempt.
func (e *InsertError) Retryable() bool {
	return !errors.Is(e.Err, ErrRejected)
}

func classifyStatus(table string, status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}

	insertErr := &InsertError{Table: table, StatusCode: status, Body: body, Err: ErrUnavailable}

	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
	case status >= 400 && status < 500:
		insertErr.Err = ErrRejected
	}

	return insertErr
}

// IsRejected reports whether err came from the store refusing a record.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
