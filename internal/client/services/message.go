// Package services holds the client's page-level flows (auth, notifications)
// and the mapping from their errors to user-visible text.
package services

import (
	"errors"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/validate"
	"github.com/yudo-scheduler/yudo/internal/common"
)

// GenericError is shown for transport and decoding failures.
const GenericError = "An error occurred. Please try again."

// Message turns err into the string shown to the user:
//   - validation failures keep their own message;
//   - server errors show the server's message, or fallback when it sent none;
//   - anything else shows GenericError.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var ve *validate.Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	if msg, ok := api.ServerMessage(err); ok {
		return msg
	}
	var se *api.ServerError
	if errors.As(err, &se) {
		if fallback != "" {
			return fallback
		}
		return GenericError
	}
	if errors.Is(err, common.ErrBusy) {
		return "Please wait for the current request to finish."
	}
	return GenericError
}
