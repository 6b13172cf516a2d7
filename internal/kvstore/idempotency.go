package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const idempotencyPrefix = "idem/"

// IdempotencyCache stores replayable responses as Badger entries that
// expire on their own
type IdempotencyCache struct {
	store *Store
}

// NewIdempotencyCache creates an idempotency cache
func NewIdempotencyCache(store *Store) *IdempotencyCache {
	return &IdempotencyCache{store: store}
}

// Get returns nil, nil on a miss or after expiry
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := c.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(idempotencyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

// Set stores value for ttl
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.store.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(idempotencyPrefix+key), value).WithTTL(ttl))
	})
}
