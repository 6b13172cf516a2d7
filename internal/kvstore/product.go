package kvstore

import (
	"context"
	"fmt"

	"github.com/deliverus/api/internal/model"
	"github.com/dgraph-io/badger/v3"
)

// ProductStore keeps the product fields that reference schedules
type ProductStore struct {
	store *Store
}

// NewProductStore creates a product store
func NewProductStore(store *Store) *ProductStore {
	return &ProductStore{store: store}
}

// Create stores a product under its restaurant, optionally linked to one of
// that restaurant's schedules
func (s *ProductStore) Create(ctx context.Context, product *model.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := *product
	record.ID = newID("product")

	err := s.store.db.Update(func(txn *badger.Txn) error {
		if record.ScheduleID != nil {
			var sc model.Schedule
			found, err := getJSON(txn, schedulePrefix+*record.ScheduleID, &sc)
			if err != nil {
				return err
			}
			if !found || sc.RestaurantID != record.RestaurantID {
				return fmt.Errorf("schedule %s does not belong to restaurant %s", *record.ScheduleID, record.RestaurantID)
			}
			if err := txn.Set([]byte(scheduleProductPrefix+*record.ScheduleID+"/"+record.ID), nil); err != nil {
				return err
			}
		}
		if err := txn.Set([]byte(restaurantProductPrefix+record.RestaurantID+"/"+record.ID), nil); err != nil {
			return err
		}
		return putJSON(txn, productPrefix+record.ID, &record)
	})
	if err != nil {
		return err
	}

	*product = record
	return nil
}

// GetByID returns nil, nil when the product does not exist
func (s *ProductStore) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p model.Product
	var found bool
	err := s.store.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, productPrefix+id, &p)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func deleteProduct(txn *badger.Txn, id string) error {
	var p model.Product
	found, err := getJSON(txn, productPrefix+id, &p)
	if err != nil || !found {
		return err
	}
	if p.ScheduleID != nil {
		if err := txn.Delete([]byte(scheduleProductPrefix + *p.ScheduleID + "/" + id)); err != nil {
			return err
		}
	}
	if err := txn.Delete([]byte(restaurantProductPrefix + p.RestaurantID + "/" + id)); err != nil {
		return err
	}
	return txn.Delete([]byte(productPrefix + id))
}
