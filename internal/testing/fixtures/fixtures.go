package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/deliverus/api/internal/database"
	"github.com/deliverus/api/internal/model"
	"github.com/deliverus/api/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	restaurants *repository.RestaurantRepository
	schedules   *repository.ScheduleRepository
	products    *repository.ProductRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		restaurants: repository.NewRestaurantRepository(db),
		schedules:   repository.NewScheduleRepository(db),
		products:    repository.NewProductRepository(db),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Restaurant Fixtures
// ============================================================================

// RestaurantOpts customizes restaurant creation
type RestaurantOpts struct {
	Name string
}

// WithName sets the restaurant name
func WithName(name string) func(*RestaurantOpts) {
	return func(o *RestaurantOpts) { o.Name = name }
}

// CreateRestaurant creates a restaurant owned by ownerID
func (f *Factory) CreateRestaurant(t *testing.T, ownerID string, opts ...func(*RestaurantOpts)) *model.Restaurant {
	t.Helper()

	o := &RestaurantOpts{
		Name: fmt.Sprintf("Restaurant %s", randomID()),
	}
	for _, fn := range opts {
		fn(o)
	}

	restaurant := &model.Restaurant{Name: o.Name, UserID: ownerID}
	if err := f.restaurants.Create(ctx(t), restaurant); err != nil {
		t.Fatalf("fixtures: failed to create restaurant: %v", err)
	}
	return restaurant
}

// ============================================================================
// Schedule Fixtures
// ============================================================================

// CreateSchedule creates a schedule for restaurant
func (f *Factory) CreateSchedule(t *testing.T, restaurant *model.Restaurant, startTime, endTime string) *model.Schedule {
	t.Helper()

	schedule := &model.Schedule{
		StartTime:    startTime,
		EndTime:      endTime,
		RestaurantID: restaurant.ID,
	}
	if err := f.schedules.Create(ctx(t), schedule); err != nil {
		t.Fatalf("fixtures: failed to create schedule: %v", err)
	}
	return schedule
}

// ============================================================================
// Product Fixtures
// ============================================================================

// CreateProduct creates a product of restaurant, attached to schedule when
// it is not nil
func (f *Factory) CreateProduct(t *testing.T, restaurant *model.Restaurant, schedule *model.Schedule) *model.Product {
	t.Helper()

	product := &model.Product{
		Name:         fmt.Sprintf("Product %s", randomID()),
		RestaurantID: restaurant.ID,
	}
	if schedule != nil {
		id := schedule.ID
		product.ScheduleID = &id
	}
	if err := f.products.Create(ctx(t), product); err != nil {
		t.Fatalf("fixtures: failed to create product: %v", err)
	}
	return product
}
