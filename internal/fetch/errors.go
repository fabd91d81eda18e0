package fetch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hoopmetrics/enrich/pkg/models"
)

// HTTPError is returned for non-2xx responses. It carries the status code so
// the retry policy and the status taxonomy can classify it without string
// matching.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Status, e.URL)
}

// GetStatusCode implements retry.StatusCoder.
func (e *HTTPError) GetStatusCode() int {
	return e.StatusCode
}

// Classify maps a fetch failure onto the scrape status taxonomy.
func Classify(err error) models.Status {
	if err == nil {
		return models.StatusOK
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusNotFound:
			return models.StatusNotFound
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return models.StatusRateLimited
		case httpErr.StatusCode == http.StatusForbidden:
			return models.StatusBlocked
		case httpErr.StatusCode == http.StatusUnauthorized:
			return models.StatusLoginWall
		default:
			return models.StatusFetchFailed
		}
	}
	return models.StatusFetchFailed
}

// maxErrorDetail bounds the error strings persisted to the store and ledger.
const maxErrorDetail = 200

// Truncate bounds an error message for logging and persistence.
func Truncate(s string) string {
	if len(s) <= maxErrorDetail {
		return s
	}
	return s[:maxErrorDetail]
}
