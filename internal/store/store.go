package store

import "context"

// Store is the durable keyed substrate each component persists into:
// single-key atomic get/set/has over opaque keys, no cross-key
// transactions, no secondary indexes. Uniqueness and multi-record
// consistency are engineered above it, at the call level.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
}
