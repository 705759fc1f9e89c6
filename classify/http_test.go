package classify

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeHTTPError struct {
	status int
	method string
}

func (e fakeHTTPError) Error() string                     { return "http error" }
func (e fakeHTTPError) HTTPStatusCode() int               { return e.status }
func (e fakeHTTPError) HTTPMethod() string                { return e.method }
func (e fakeHTTPError) RetryAfter() (time.Duration, bool) { return 0, false }

func TestHTTPClassifierRetries5xxOnIdempotentMethod(t *testing.T) {
	c := HTTPClassifier{}
	if !c.Classify(fakeHTTPError{status: 503, method: "GET"}) {
		t.Fatal("expected 503 on GET to be retryable")
	}
}

func TestHTTPClassifierDoesNotRetryNonIdempotentMethod(t *testing.T) {
	c := HTTPClassifier{}
	if c.Classify(fakeHTTPError{status: 503, method: "POST"}) {
		t.Fatal("expected 503 on POST to be non-retryable")
	}
}

func TestHTTPClassifierRetries429(t *testing.T) {
	c := HTTPClassifier{}
	if !c.Classify(fakeHTTPError{status: 429, method: "GET"}) {
		t.Fatal("expected 429 on GET to be retryable")
	}
}

func TestHTTPClassifierDoesNotRetryOther4xx(t *testing.T) {
	c := HTTPClassifier{}
	if c.Classify(fakeHTTPError{status: 404, method: "GET"}) {
		t.Fatal("expected 404 to be non-retryable")
	}
}

func TestHTTPClassifierRetriesAdditional4xx(t *testing.T) {
	c := HTTPClassifier{Retryable4xx: map[int]struct{}{409: {}}}
	if !c.Classify(fakeHTTPError{status: 409, method: "GET"}) {
		t.Fatal("expected configured extra 4xx to be retryable")
	}
}

func TestHTTPClassifierNonHTTPErrorIsNonRetryable(t *testing.T) {
	c := HTTPClassifier{}
	if c.Classify(errors.New("boom")) {
		t.Fatal("expected plain error to be non-retryable")
	}
}

func TestHTTPClassifierContextCanceledIsNonRetryable(t *testing.T) {
	c := HTTPClassifier{}
	if c.Classify(context.Canceled) != false {
		t.Fatal("expected context.Canceled to be non-retryable")
	}
}
