package httptp

import (
	"errors"
	"fmt"
)

// ErrUnexpectedContentType is returned when a subscription response is not
// an event stream.
var ErrUnexpectedContentType = errors.New("httptp: unexpected content type")

// HTTPError is returned for non-2xx responses that do not carry a GraphQL
// response body.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("httptp: %s", e.Status)
	}
	return fmt.Sprintf("httptp: %s: %s", e.Status, e.Body)
}
