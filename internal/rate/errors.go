package rate

import "errors"

var (
	// ErrRateLimited means the window's failure budget is spent.
	ErrRateLimited = errors.New("too many login attempts")
	// ErrRedisUnavailable wraps any Redis failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
