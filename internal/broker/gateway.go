// Package broker defines the order gateway boundary and a paper trading
// implementation used for dry runs and tests. Real broker adapters live
// behind the same interface and are out of scope here.
package broker

import "errors"

var (
	// ErrTimeout means the broker did not answer within the bounded wait.
	// The executor treats it as retryable.
	ErrTimeout = errors.New("broker timeout")

	// ErrRejected means the broker refused the order parameters.
	// Fatal for the cycle, never retried.
	ErrRejected = errors.New("broker rejected order")

	// ErrDisconnected means the session to the broker is down.
	ErrDisconnected = errors.New("broker disconnected")
)
