package llm

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the pause before the first transport retry; later
// attempts wait a multiple of it.
const RetryBaseDelay = 300 * time.Millisecond

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Provider string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	return e.Provider + ": http status " + strconv.Itoa(e.Status) + ": " + e.Message
}

// ShouldRetry reports whether err is a transient transport failure.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrNoResult) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == 429 || statusErr.Status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection reset",
		"connection refused",
		"connection closed",
		"broken pipe",
		"tls handshake timeout",
		"client.timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WithRetry runs call up to maxRetries+1 times while ShouldRetry holds.
func WithRetry(ctx context.Context, maxRetries int, call func(attempt int) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = call(attempt)
		if err == nil || attempt >= maxRetries || !ShouldRetry(err) {
			return err
		}
		select {
		case <-time.After(RetryBaseDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
