package ports

import "context"

// KeyValueStore is the durable store backing the session. It is a plain
// string-keyed store scoped to one client instance, the way a browser origin
// store is scoped to one origin. Reads and writes are synchronous; values
// survive process restarts for durable implementations.
type KeyValueStore interface {
	// Get retrieves the value for key. Returns core.ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is a no-op, not an error.
	Delete(ctx context.Context, key string) error
}
