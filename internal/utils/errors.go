package utils

import "fmt"

// AppError tags a failure with the operation that raised it, using dotted
// operation names such as "agent.request" or "store.put". Msg is a short
// human-readable summary; Err carries the underlying cause for unwrapping.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an operation-tagged error. A nil cause is allowed when
// the failure has no deeper error to carry.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
