package upstream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Classify maps the outcome of one vendor HTTP call onto an *Error. It
// returns nil for a 2xx response without a transport error. Caller
// cancellation and errors it does not recognise are returned unchanged, which
// the retrier treats as fatal.
func Classify(vendor string, resp *http.Response, err error, now time.Time) error {
	if err != nil {
		var ue *Error
		if errors.As(err, &ue) || errors.Is(err, context.Canceled) {
			return err
		}
		if isNetwork(err) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return &Error{Kind: KindNetwork, Vendor: vendor, Err: err}
		}
		return err
	}
	if resp == nil {
		return &Error{Kind: KindInvalid, Vendor: vendor, Err: errors.New("no response")}
	}
	return FromStatus(vendor, resp.StatusCode, resp.Header, now)
}

// FromStatus classifies a bare status code. Retry-After is read from header
// for 429 and 503 responses.
func FromStatus(vendor string, status int, header http.Header, now time.Time) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		e := &Error{Kind: KindRateLimited, Vendor: vendor, StatusCode: status, Err: errors.New(http.StatusText(status))}
		if d, ok := ParseRetryAfter(header.Get("Retry-After"), now); ok {
			e.RetryAfter = d
		}
		return e
	case status >= 500:
		e := &Error{Kind: KindServer, Vendor: vendor, StatusCode: status, Err: errors.New(http.StatusText(status))}
		if status == http.StatusServiceUnavailable {
			if d, ok := ParseRetryAfter(header.Get("Retry-After"), now); ok {
				e.RetryAfter = d
			}
		}
		return e
	case status >= 400:
		return &Error{Kind: KindClient, Vendor: vendor, StatusCode: status, Err: errors.New(http.StatusText(status))}
	default:
		return &Error{Kind: KindInvalid, Vendor: vendor, StatusCode: status, Err: errors.New("unexpected status")}
	}
}

// ParseRetryAfter accepts either delta-seconds or an HTTP-date. Dates in the
// past yield a zero delay.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	d := t.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

func isNetwork(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	// url.Error satisfies net.Error itself, so look at what it wraps.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var ne net.Error
	return errors.As(err, &ne)
}
