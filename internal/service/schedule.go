package service

import (
	"context"
	"fmt"

	"github.com/deliverus/api/internal/model"
)

// ScheduleRepository defines the interface for schedule storage
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*model.Schedule, error)
	// GetByIDForRestaurant returns nil, nil unless the schedule exists and
	// belongs to restaurantID.
	GetByIDForRestaurant(ctx context.Context, id, restaurantID string) (*model.Schedule, error)
	// Update writes StartTime and EndTime in place. Returns nil, nil if the
	// record is gone.
	Update(ctx context.Context, schedule *model.Schedule) (*model.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// RestaurantRepository defines the read access schedules need to restaurants
type RestaurantRepository interface {
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
}

// ScheduleService handles schedule business logic
type ScheduleService struct {
	scheduleRepo   ScheduleRepository
	restaurantRepo RestaurantRepository
}

// ScheduleServiceConfig holds configuration for the schedule service
type ScheduleServiceConfig struct {
	ScheduleRepo   ScheduleRepository
	RestaurantRepo RestaurantRepository
}

// NewScheduleService creates a new schedule service
func NewScheduleService(cfg ScheduleServiceConfig) *ScheduleService {
	return &ScheduleService{
		scheduleRepo:   cfg.ScheduleRepo,
		restaurantRepo: cfg.RestaurantRepo,
	}
}

// ListByRestaurant returns the schedules of a restaurant. Any logged-in
// principal may list.
func (s *ScheduleService) ListByRestaurant(ctx context.Context, principal *model.Principal, restaurantID string) ([]*model.Schedule, error) {
	if principal == nil {
		return nil, ErrNotLoggedIn
	}

	restaurant, err := s.getRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	schedules, err := s.scheduleRepo.ListByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if schedules == nil {
		schedules = []*model.Schedule{}
	}
	return schedules, nil
}

// Create adds a schedule to a restaurant owned by principal
func (s *ScheduleService) Create(ctx context.Context, principal *model.Principal, restaurantID string, req *model.ScheduleRequest) (*model.Schedule, error) {
	restaurant, err := s.authorize(ctx, principal, restaurantID)
	if err != nil {
		return nil, err
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	schedule := &model.Schedule{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RestaurantID: restaurant.ID,
	}
	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return schedule, nil
}

// Update replaces the times of an existing schedule
func (s *ScheduleService) Update(ctx context.Context, principal *model.Principal, restaurantID, scheduleID string, req *model.ScheduleRequest) (*model.Schedule, error) {
	restaurant, err := s.authorize(ctx, principal, restaurantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.getSchedule(ctx, scheduleID, restaurant.ID)
	if err != nil {
		return nil, err
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	changed := *existing
	changed.StartTime = req.StartTime
	changed.EndTime = req.EndTime

	updated, err := s.scheduleRepo.Update(ctx, &changed)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	if updated == nil {
		return nil, ErrScheduleNotFound
	}
	return updated, nil
}

// Destroy deletes a schedule. Deleting it twice yields ErrScheduleNotFound.
func (s *ScheduleService) Destroy(ctx context.Context, principal *model.Principal, restaurantID, scheduleID string) (*model.ScheduleDeleted, error) {
	restaurant, err := s.authorize(ctx, principal, restaurantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.getSchedule(ctx, scheduleID, restaurant.ID)
	if err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Delete(ctx, existing.ID); err != nil {
		return nil, fmt.Errorf("delete schedule: %w", err)
	}
	return &model.ScheduleDeleted{Message: model.MsgScheduleDeleted}, nil
}

// authorize runs the principal, restaurant and ownership checks in order.
func (s *ScheduleService) authorize(ctx context.Context, principal *model.Principal, restaurantID string) (*model.Restaurant, error) {
	if principal == nil {
		return nil, ErrNotLoggedIn
	}

	restaurant, err := s.getRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	if !IsOwner(principal, restaurant) {
		return nil, ErrNotRestaurantOwner
	}
	return restaurant, nil
}

func (s *ScheduleService) getRestaurant(ctx context.Context, restaurantID string) (*model.Restaurant, error) {
	if restaurantID == "" {
		return nil, ErrRestaurantNotFound
	}
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

// getSchedule hides schedules of other restaurants behind ErrScheduleNotFound
func (s *ScheduleService) getSchedule(ctx context.Context, scheduleID, restaurantID string) (*model.Schedule, error) {
	if scheduleID == "" {
		return nil, ErrScheduleNotFound
	}
	schedule, err := s.scheduleRepo.GetByIDForRestaurant(ctx, scheduleID, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	return schedule, nil
}

func validateRequest(req *model.ScheduleRequest) error {
	if req == nil {
		req = &model.ScheduleRequest{}
	}
	if errs := req.Validate(); len(errs) > 0 {
		return model.NewValidationError(errs)
	}
	return nil
}
