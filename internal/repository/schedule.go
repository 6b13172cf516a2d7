package repository

import (
	"context"
	"errors"

	"github.com/deliverus/api/internal/database"
	"github.com/deliverus/api/internal/model"
)

// ScheduleRepository handles schedule data access
type ScheduleRepository struct {
	db database.Database
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db database.Database) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create creates a new schedule under schedule.RestaurantID
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	query := `
		CREATE schedule CONTENT {
			restaurant: type::thing("restaurant", $restaurant_key),
			start_time: $start_time,
			end_time: $end_time,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"restaurant_key": recordKey("restaurant", schedule.RestaurantID),
		"start_time":     schedule.StartTime,
		"end_time":       schedule.EndTime,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	schedule.ID = created.ID
	schedule.CreatedOn = created.CreatedOn
	schedule.UpdatedOn = created.UpdatedOn
	return nil
}

// ListByRestaurant retrieves all schedules of a restaurant in creation order
func (r *ScheduleRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*model.Schedule, error) {
	query := `
		SELECT * FROM schedule
		WHERE restaurant = type::thing("restaurant", $restaurant_key)
		ORDER BY created_on ASC, id ASC
	`
	vars := map[string]interface{}{"restaurant_key": recordKey("restaurant", restaurantID)}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return parseSchedulesResult(result), nil
}

// GetByIDForRestaurant retrieves a schedule only if it belongs to restaurantID.
// A schedule of another restaurant is reported the same as a missing one.
func (r *ScheduleRepository) GetByIDForRestaurant(ctx context.Context, id, restaurantID string) (*model.Schedule, error) {
	query := `
		SELECT * FROM type::thing("schedule", $key)
		WHERE restaurant = type::thing("restaurant", $restaurant_key)
	`
	vars := map[string]interface{}{
		"key":            recordKey("schedule", id),
		"restaurant_key": recordKey("restaurant", restaurantID),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseScheduleResult(result)
}

// Update overwrites start and end time. Returns nil, nil when the schedule
// no longer exists under its restaurant.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error) {
	query := `
		UPDATE schedule SET
			start_time = $start_time,
			end_time = $end_time,
			updated_on = time::now()
		WHERE id = type::thing("schedule", $key)
			AND restaurant = type::thing("restaurant", $restaurant_key)
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"key":            recordKey("schedule", schedule.ID),
		"restaurant_key": recordKey("restaurant", schedule.RestaurantID),
		"start_time":     schedule.StartTime,
		"end_time":       schedule.EndTime,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseScheduleResult(result)
}

// Delete deletes a schedule. Products that referenced it are detached by the
// schedule_detach_products event.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE schedule WHERE id = type::thing("schedule", $key)`
	vars := map[string]interface{}{"key": recordKey("schedule", id)}

	return r.db.Execute(ctx, query, vars)
}

func parseScheduleResult(result interface{}) (*model.Schedule, error) {
	data, err := firstRecord(result)
	if err != nil {
		return nil, err
	}
	return scheduleFromMap(data), nil
}

func parseSchedulesResult(results []interface{}) []*model.Schedule {
	records := allRecords(results)
	schedules := make([]*model.Schedule, 0, len(records))
	for _, data := range records {
		schedules = append(schedules, scheduleFromMap(data))
	}
	return schedules
}

func scheduleFromMap(data map[string]interface{}) *model.Schedule {
	return &model.Schedule{
		ID:           convertSurrealID(data["id"]),
		StartTime:    getString(data, "start_time"),
		EndTime:      getString(data, "end_time"),
		RestaurantID: convertSurrealID(data["restaurant"]),
		CreatedOn:    getTime(data, "created_on"),
		UpdatedOn:    getTime(data, "updated_on"),
	}
}
