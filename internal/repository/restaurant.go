package repository

import (
	"context"
	"errors"

	"github.com/deliverus/api/internal/database"
	"github.com/deliverus/api/internal/model"
)

// RestaurantRepository handles restaurant data access
type RestaurantRepository struct {
	db database.Database
}

// NewRestaurantRepository creates a new restaurant repository
func NewRestaurantRepository(db database.Database) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// Create creates a new restaurant
func (r *RestaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	query := `
		CREATE restaurant CONTENT {
			name: $name,
			user_id: $user_id,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"name":    restaurant.Name,
		"user_id": restaurant.UserID,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	restaurant.ID = created.ID
	restaurant.CreatedOn = created.CreatedOn
	return nil
}

// GetByID retrieves a restaurant by ID
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	query := `SELECT * FROM type::thing("restaurant", $key)`
	vars := map[string]interface{}{"key": recordKey("restaurant", id)}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := firstRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &model.Restaurant{
		ID:        convertSurrealID(data["id"]),
		Name:      getString(data, "name"),
		UserID:    getString(data, "user_id"),
		CreatedOn: getTime(data, "created_on"),
	}, nil
}

// Delete deletes a restaurant. Its schedules and products go with it via the
// restaurant_cascade event.
func (r *RestaurantRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE restaurant WHERE id = type::thing("restaurant", $key)`
	vars := map[string]interface{}{"key": recordKey("restaurant", id)}

	return r.db.Execute(ctx, query, vars)
}
