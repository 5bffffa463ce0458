package gamecache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for requests that can never succeed,
	// such as a non-positive game id. It is never retried or cached.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable is returned when the upstream failed for good and
	// no cached entry could stand in. It wraps the underlying cause.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

func unavailable(operation, key string, cause error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUpstreamUnavailable, operation, key, cause)
}
