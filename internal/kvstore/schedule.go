package kvstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deliverus/api/internal/model"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
)

// Key layout:
//
//	restaurant/{id}                               restaurant record
//	schedule/{id}                                 schedule record
//	idx/restaurant_schedule/{rid}/{nanos}/{sid}   schedules by restaurant, creation order
//	product/{id}                                  product record
//	idx/restaurant_product/{rid}/{pid}            products by restaurant
//	idx/schedule_product/{sid}/{pid}              products by schedule
const (
	restaurantPrefix         = "restaurant/"
	schedulePrefix           = "schedule/"
	productPrefix            = "product/"
	restaurantSchedulePrefix = "idx/restaurant_schedule/"
	restaurantProductPrefix  = "idx/restaurant_product/"
	scheduleProductPrefix    = "idx/schedule_product/"
)

func newID(table string) string {
	return table + ":" + uuid.New().String()
}

func restaurantScheduleKey(s *model.Schedule) string {
	return fmt.Sprintf("%s%s/%020d/%s", restaurantSchedulePrefix, s.RestaurantID, s.CreatedOn.UnixNano(), s.ID)
}

// ScheduleStore implements schedule storage on Badger
type ScheduleStore struct {
	store *Store
	now   func() time.Time
}

// NewScheduleStore creates a schedule store
func NewScheduleStore(store *Store) *ScheduleStore {
	return &ScheduleStore{store: store, now: time.Now}
}

// Create stores a new schedule and assigns its ID and timestamps
func (s *ScheduleStore) Create(ctx context.Context, schedule *model.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	record := *schedule
	record.ID = newID("schedule")
	record.CreatedOn = s.now().UTC()
	record.UpdatedOn = record.CreatedOn

	err := s.store.db.Update(func(txn *badger.Txn) error {
		var owner model.Restaurant
		found, err := getJSON(txn, restaurantPrefix+record.RestaurantID, &owner)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("restaurant %s does not exist", record.RestaurantID)
		}
		if err := putJSON(txn, schedulePrefix+record.ID, &record); err != nil {
			return err
		}
		return txn.Set([]byte(restaurantScheduleKey(&record)), nil)
	})
	if err != nil {
		return err
	}

	*schedule = record
	return nil
}

// ListByRestaurant returns a restaurant's schedules in creation order
func (s *ScheduleStore) ListByRestaurant(ctx context.Context, restaurantID string) ([]*model.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	schedules := make([]*model.Schedule, 0)
	err := s.store.db.View(func(txn *badger.Txn) error {
		for _, key := range scanPrefix(txn, restaurantSchedulePrefix+restaurantID+"/") {
			var sc model.Schedule
			found, err := getJSON(txn, schedulePrefix+lastSegment(key), &sc)
			if err != nil {
				return err
			}
			if found {
				schedules = append(schedules, &sc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// GetByIDForRestaurant returns nil, nil unless the schedule exists and
// belongs to restaurantID
func (s *ScheduleStore) GetByIDForRestaurant(ctx context.Context, id, restaurantID string) (*model.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(id, "schedule:") {
		return nil, nil
	}

	var sc model.Schedule
	var found bool
	err := s.store.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, schedulePrefix+id, &sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found || sc.RestaurantID != restaurantID {
		return nil, nil
	}
	return &sc, nil
}

// Update overwrites start and end time. Returns nil, nil if the schedule is
// gone or moved restaurants.
func (s *ScheduleStore) Update(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *model.Schedule
	err := s.store.db.Update(func(txn *badger.Txn) error {
		var current model.Schedule
		found, err := getJSON(txn, schedulePrefix+schedule.ID, &current)
		if err != nil || !found || current.RestaurantID != schedule.RestaurantID {
			return err
		}
		current.StartTime = schedule.StartTime
		current.EndTime = schedule.EndTime
		current.UpdatedOn = s.now().UTC()
		if err := putJSON(txn, schedulePrefix+current.ID, &current); err != nil {
			return err
		}
		updated = &current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a schedule and clears the reference on its products.
// Deleting a missing schedule is a no-op.
func (s *ScheduleStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.db.Update(func(txn *badger.Txn) error {
		return deleteSchedule(txn, id)
	})
}

func deleteSchedule(txn *badger.Txn, id string) error {
	var sc model.Schedule
	found, err := getJSON(txn, schedulePrefix+id, &sc)
	if err != nil || !found {
		return err
	}

	for _, key := range scanPrefix(txn, scheduleProductPrefix+id+"/") {
		var p model.Product
		pid := lastSegment(key)
		ok, err := getJSON(txn, productPrefix+pid, &p)
		if err != nil {
			return err
		}
		if ok {
			p.ScheduleID = nil
			if err := putJSON(txn, productPrefix+pid, &p); err != nil {
				return err
			}
		}
		if err := txn.Delete([]byte(key)); err != nil {
			return err
		}
	}

	if err := txn.Delete([]byte(restaurantScheduleKey(&sc))); err != nil {
		return err
	}
	return txn.Delete([]byte(schedulePrefix + id))
}
