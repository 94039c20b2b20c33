package mailer

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// IsConnError reports whether err is a connection-class transient failure:
// timeout, reset, refused or DNS resolution. These warrant discarding the
// connection and retrying; anything else is treated as permanent for the
// message at hand.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
