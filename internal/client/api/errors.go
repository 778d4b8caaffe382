package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable covers transport failures and unreadable responses.
	ErrUnavailable = errors.New("server unavailable")
)

// ServerError is a failure reported by the API. Message is the server's own
// text, empty when the response carried none.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.Status)
	}
	return e.Message
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) (string, bool) {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}
