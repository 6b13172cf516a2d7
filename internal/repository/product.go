package repository

import (
	"context"
	"errors"

	"github.com/deliverus/api/internal/database"
	"github.com/deliverus/api/internal/model"
)

// ProductRepository handles the product fields schedules care about
type ProductRepository struct {
	db database.Database
}

// NewProductRepository creates a new product repository
func NewProductRepository(db database.Database) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a product, optionally linked to a schedule
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		CREATE product CONTENT {
			name: $name,
			restaurant: type::thing("restaurant", $restaurant_key),
			schedule: IF $schedule_key THEN type::thing("schedule", $schedule_key) ELSE NONE END
		}
	`
	var scheduleKey interface{}
	if product.ScheduleID != nil {
		scheduleKey = recordKey("schedule", *product.ScheduleID)
	}
	vars := map[string]interface{}{
		"name":           product.Name,
		"restaurant_key": recordKey("restaurant", product.RestaurantID),
		"schedule_key":   scheduleKey,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	product.ID = created.ID
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT * FROM type::thing("product", $key)`
	vars := map[string]interface{}{"key": recordKey("product", id)}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := firstRecord(result)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:           convertSurrealID(data["id"]),
		Name:         getString(data, "name"),
		RestaurantID: convertSurrealID(data["restaurant"]),
	}
	if sid := convertSurrealID(data["schedule"]); sid != "" {
		product.ScheduleID = &sid
	}
	return product, nil
}
