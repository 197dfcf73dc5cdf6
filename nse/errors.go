/* Copyright © 2026 The nsedata Authors. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package nse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Sentinel errors for the failure modes callers need to tell apart. Match
// with errors.Is.
var (
	// ErrUnknownRoute indicates a route absent from the route table; a
	// programmer error, not retryable.
	ErrUnknownRoute = errors.New("nse: unknown route")

	// ErrRequestFailed indicates a network-level failure or a non-2xx HTTP
	// status; retryable by caller policy.
	ErrRequestFailed = errors.New("nse: request failed")

	// ErrTimeout indicates the request exceeded the configured deadline.
	// On the exchange this frequently means the data isn't published yet
	// (e.g. a holiday) rather than a true outage, so batch callers should
	// skip and continue.
	ErrTimeout = errors.New("nse: request timed out")

	// ErrDecode indicates the response body was not valid JSON; likely an
	// upstream contract change, not retryable.
	ErrDecode = errors.New("nse: unable to decode response")

	// ErrInvalidArguments indicates the caller supplied a partial or
	// inconsistent argument set.
	ErrInvalidArguments = errors.New("nse: invalid arguments")
)

// classifyRequestError maps a transport-level error onto the taxonomy,
// distinguishing deadline expiry from other network failures.
func classifyRequestError(err error) error {
	if isTimeout(err) {
		return ErrTimeout
	}
	return ErrRequestFailed
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// requestError wraps err with the appropriate sentinel while keeping the
// underlying detail in the message.
func requestError(action string, err error) error {
	return fmt.Errorf("%w: unable to %v: %v", classifyRequestError(err), action, err)
}

// statusError reports a non-2xx response.
func statusError(action string, status int) error {
	return fmt.Errorf("%w: unable to %v: http status %v", ErrRequestFailed,
		action, status)
}

func unknownRouteError(route Route) error {
	return fmt.Errorf("%w: %v (%d)", ErrUnknownRoute, route, int(route))
}

func decodeError(what string, err error) error {
	return fmt.Errorf("%w: unable to parse %v response: %v", ErrDecode,
		what, err)
}

func invalidArgsError(detail string) error {
	return fmt.Errorf("%w: %v", ErrInvalidArguments, detail)
}
