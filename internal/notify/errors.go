package notify

import "errors"

// Domain-specific errors for notification operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when publishing on a disconnected client.
	ErrNotConnected = errors.New("notify: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("notify: connection failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("notify: publish failed")

	// ErrDisabled is returned when notifications are disabled in the
	// configuration.
	ErrDisabled = errors.New("notify: notifications disabled")
)
