package gateway

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// retryableStatusCodes are the HTTP statuses treated as transient.
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// transientPatterns match error messages from transports that do not
// expose a typed error.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"network is unreachable",
	"no such host",
	"temporary failure",
	"i/o timeout",
	"eof",
}

// IsTransient classifies an error as retryable. Network errors and
// retryable HTTP statuses are transient; every other failure (schema
// validation, auth, other 4xx) propagates immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatusCodes[apiErr.HTTPStatusCode]
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode != 0 {
			return retryableStatusCodes[reqErr.HTTPStatusCode]
		}
		// A request error without a status is a transport failure.
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatusCodes[statusErr.Code]
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// StatusError carries an HTTP status from capability backends that speak
// plain HTTP (web search, chart rendering).
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}
