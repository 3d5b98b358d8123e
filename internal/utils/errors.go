package utils

import (
	"errors"
	"fmt"
)

// AppError wraps an operation with a classification message and the
// underlying cause. For service errors Msg carries the remote error code,
// so callers can branch on it without string-matching Error() output.
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

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// ErrorHasMsg reports whether err wraps an AppError whose Msg equals msg.
func ErrorHasMsg(err error, msg string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Msg == msg
}
