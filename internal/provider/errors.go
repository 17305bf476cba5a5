package provider

import "strings"

const fallbackMessage = "Something went wrong"

// Error is returned when the storage service rejects an upload or delete.
// Its message is the service's own message, or a generic one when the
// service did not provide any.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func serviceError(op string, err error) error {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = fallbackMessage
	}
	return &Error{Op: op, Message: msg, Err: err}
}
