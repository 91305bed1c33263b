package api

import (
	"fmt"
	"net/http"

	"github.com/go-errors/errors"
)

// ErrNotAuthenticated is returned before a request is issued when an
// account-scoped operation has no credential available.
var ErrNotAuthenticated = errors.New("no credential for account-scoped call")

// HTTPError is any non-2xx response from the backend.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// IsRateLimited reports whether err is a backend rate-limit rejection.
// Callers use it to shift their throttle window forward instead of
// retrying.
func IsRateLimited(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusTooManyRequests
	}
	return false
}
