package classify

import (
	"context"
	"errors"
	"strings"
	"time"
)

// HTTPError is a classify-owned interface that lets an HTTP client
// error describe itself without this package importing any particular
// client library.
//
// Implementations should use status code 0 for transport errors (no
// response received at all).
type HTTPError interface {
	HTTPStatusCode() int
	HTTPMethod() string
	RetryAfter() (time.Duration, bool)
}

// HTTPClassifier classifies HTTP-flavored errors. On idempotent methods,
// transport errors (status 0), 5xx responses, 408/429 and any status in
// Retryable4xx are retryable; everything else, including an error that
// doesn't implement HTTPError or is a context cancellation/deadline, is
// not.
type HTTPClassifier struct {
	// Retryable4xx is an optional set of additional retryable 4xx status
	// codes, beyond 408 and 429.
	Retryable4xx map[int]struct{}
}

func (c HTTPClassifier) Classify(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	he, ok := err.(HTTPError)
	if !ok {
		return false
	}

	status := he.HTTPStatusCode()
	method := strings.ToUpper(strings.TrimSpace(he.HTTPMethod()))
	if !isIdempotentMethod(method) {
		return false
	}

	if status == 0 {
		return true
	}
	if status >= 500 && status <= 599 {
		return true
	}
	return status == 408 || status == 429 || c.retryable4xx(status)
}

func (c HTTPClassifier) retryable4xx(status int) bool {
	if c.Retryable4xx == nil {
		return false
	}
	_, ok := c.Retryable4xx[status]
	return ok
}

func isIdempotentMethod(method string) bool {
	switch method {
	case "GET", "HEAD", "PUT", "DELETE", "OPTIONS", "TRACE":
		return true
	default:
		return false
	}
}
