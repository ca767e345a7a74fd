package submission

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInFlight is returned when Submit is called while a request for the same
// form is still outstanding.
var ErrInFlight = errors.New("submission: a submission is already in flight")

// ValidationError reports a submission rejected locally before any network
// call. It wraps form.ErrEmptyForm.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "submission: validation failed"
	}
	return "submission: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError covers every network-layer failure: no connectivity, an
// unreachable endpoint or a non-2xx response. It is surfaced verbatim and
// never retried.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	return "submission: transport: " + e.Detail()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Detail returns the raw diagnostic shown to the user: the response body when
// there is one, otherwise the transport error or status text.
func (e *TransportError) Detail() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return "unknown error"
}
