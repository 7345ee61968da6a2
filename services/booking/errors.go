package booking

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation Code = "validation"
	CodeConflict   Code = "conflict"
	CodeCalendar   Code = "calendar"
	CodeEmail      Code = "email"
)

// BookingError is a booking failure the handler can map to a status.
type BookingError struct {
	Code    Code
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func newError(code Code, msg string, err error) error {
	return &BookingError{Code: code, Message: msg, Err: err}
}

// CodeOf returns the BookingError code carried by err, or "".
func CodeOf(err error) Code {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
