package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed call to the remote API.  Message carries the remote
// explanation verbatim when one was returned.
type Error struct {
	Call    string // logical call name, e.g. "chats.create"
	Status  int    // HTTP status; zero for transport failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Call, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Call, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error for a local contract violation, such as a
// response that lacks a required field.
func Errorf(call string, wrapped error, format string, args ...any) *Error {
	return &Error{Call: call, Message: fmt.Sprintf(format, args...), Err: wrapped}
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Status == http.StatusNotFound
}

// Is reports whether err came from the remote API.
func Is(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}
