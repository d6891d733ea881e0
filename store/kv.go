package store

import "context"

// KV is the key-value store behind the accessors. Values are BSON-encodable
// records; lists are string lists kept under their own keys.
type KV interface {
	// Get decodes the value at key into dst. It reports false when the key
	// holds no value.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	// SetNX stores v only if key holds no value and reports whether it did.
	SetNX(ctx context.Context, key string, v any) (bool, error)
	Del(ctx context.Context, keys ...string) error
	// LPush inserts values at the head of the list, in the given order.
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string) ([]string, error)
	// LRem removes every occurrence of value from the list.
	LRem(ctx context.Context, key, value string) error
}
