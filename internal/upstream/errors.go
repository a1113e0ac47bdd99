package upstream

import "fmt"

// APIError is a non-success response from the billing API, carrying the
// server-supplied message when one was present in the {"error": ...} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billing api: %s (status %d)", e.Message, e.StatusCode)
}

// ReferentialRejection reports whether the response is a 400-class refusal.
// On deletes the API uses these to signal that the record is still
// referenced elsewhere; callers surface the message to the user instead of
// treating it as an application error.
func (e *APIError) ReferentialRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
