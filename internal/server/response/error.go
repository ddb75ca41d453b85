package response

import (
	"context"
	"errors"
	"net/http"
)

// HandleError maps domain errors to HTTP responses. fallback is the message of
// unexpected errors.
func HandleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, "Request cancelled or timed out")
	default:
		InternalServerError(w, fallback)
	}
}
