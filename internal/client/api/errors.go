package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies a failed remote call.
type ErrorKind string

const (
	KindRateLimited     ErrorKind = "rate_limited"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindTransient       ErrorKind = "transient"
	KindNotFound        ErrorKind = "not_found"
	KindGeneric         ErrorKind = "generic"
)

// Sentinels matched by RemoteError.Is.
var (
	ErrRateLimited     = errors.New("remote rate limit exceeded")
	ErrUnauthenticated = errors.New("remote call unauthenticated")
	ErrTransient       = errors.New("transient remote failure")
	ErrNotFound        = errors.New("remote resource not found")
	ErrGeneric         = errors.New("remote call failed")
)

// RemoteError describes a failed call to the feed API.
type RemoteError struct {
	Err        error
	Kind       ErrorKind
	Message    string
	StatusCode int           // 0 для сетевых ошибок
	RetryAfter time.Duration // только для rate_limited
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind.
func (e *RemoteError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindRateLimited:
		return ErrRateLimited
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindTransient:
		return ErrTransient
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrGeneric
	}
}

// ClassifyStatus maps an HTTP status code to an error kind.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthenticated
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindTransient
	default:
		return KindGeneric
	}
}

// IsRetryable reports whether err is worth retrying later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// ParseRetryAfter reads a Retry-After header given either in seconds or as an
// HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
