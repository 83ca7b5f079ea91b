package bili

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPayload is returned when the envelope reports success but
// carries no data field.
var ErrEmptyPayload = errors.New("bili: empty response payload")

// RemoteAPIError is a non-zero application code inside the response
// envelope. It is never retried by the client.
type RemoteAPIError struct {
	Code    int
	Message string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("bili api error (%d): %s", e.Code, e.Message)
}

// HTTPError is a transport-level non-2xx response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("bili http %d: %s", e.Status, body)
}
