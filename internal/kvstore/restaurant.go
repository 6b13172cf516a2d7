package kvstore

import (
	"context"
	"strings"
	"time"

	"github.com/deliverus/api/internal/model"
	"github.com/dgraph-io/badger/v3"
)

// RestaurantStore implements restaurant storage on Badger
type RestaurantStore struct {
	store *Store
	now   func() time.Time
}

// NewRestaurantStore creates a restaurant store
func NewRestaurantStore(store *Store) *RestaurantStore {
	return &RestaurantStore{store: store, now: time.Now}
}

// Create stores a restaurant. An empty ID is assigned.
func (s *RestaurantStore) Create(ctx context.Context, restaurant *model.Restaurant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := *restaurant
	if record.ID == "" {
		record.ID = newID("restaurant")
	}
	record.CreatedOn = s.now().UTC()

	if err := s.store.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, restaurantPrefix+record.ID, &record)
	}); err != nil {
		return err
	}

	*restaurant = record
	return nil
}

// GetByID returns nil, nil when the restaurant does not exist
func (s *RestaurantStore) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(id, "restaurant:") {
		return nil, nil
	}

	var r model.Restaurant
	var found bool
	err := s.store.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, restaurantPrefix+id, &r)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

// Delete removes a restaurant with all of its schedules and products
func (s *RestaurantStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.store.db.Update(func(txn *badger.Txn) error {
		for _, key := range scanPrefix(txn, restaurantProductPrefix+id+"/") {
			if err := deleteProduct(txn, lastSegment(key)); err != nil {
				return err
			}
		}
		for _, key := range scanPrefix(txn, restaurantSchedulePrefix+id+"/") {
			if err := deleteSchedule(txn, lastSegment(key)); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(restaurantPrefix + id))
	})
}
