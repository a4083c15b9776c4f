package announce

import "errors"

var (
	// ErrChannelDisabled is returned by Send on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidConfig reports a non-positive batch or concurrency limit.
	ErrInvalidConfig = errors.New("invalid announce config")
)
