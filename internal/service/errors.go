package service

import "fmt"

// SQLExecutionError is a statement the database refused or could not finish
// in time. Message is shown to the user as diagnostic text.
type SQLExecutionError struct {
	Message string
	Err     error
}

func (e *SQLExecutionError) Error() string { return "sql execution failed: " + e.Message }

func (e *SQLExecutionError) Unwrap() error { return e.Err }

// TransportError is a failure to reach the database at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("database unavailable (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
