package lock

import "context"

// Locker serializes critical sections by key. Check-in uses it keyed by
// event id so completion checks never run against a half-updated guest set.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
