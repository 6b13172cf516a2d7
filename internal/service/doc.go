// Package service implements the business logic layer for the DeliverUS API.
//
// The schedule service owns the authorization and sequencing rules for
// restaurant schedules. Every operation checks, in order: a principal is
// present, the restaurant exists, the principal owns it (mutations only), the
// schedule exists under that restaurant (update and destroy), and the payload
// is valid. Only then is the repository written.
//
// # Service Pattern
//
//   - NewScheduleService accepts a config struct with repository dependencies
//   - Repository interfaces are declared here so tests can substitute mocks
//   - Context is passed through to the repositories for cancellation
//
// # Error Handling
//
// Domain failures are package-level sentinels:
//
//	var (
//	    ErrRestaurantNotFound = errors.New("restaurant not found")
//	    ErrNotRestaurantOwner = errors.New("user is not the restaurant owner")
//	)
//
// Payload validation failures are *model.ProblemDetails with field errors.
// Anything else is a wrapped infrastructure error and maps to 500.
//
// # Example Usage
//
//	svc := service.NewScheduleService(service.ScheduleServiceConfig{
//	    ScheduleRepo:   scheduleRepo,
//	    RestaurantRepo: restaurantRepo,
//	})
//	schedule, err := svc.Create(ctx, principal, restaurantID, &model.ScheduleRequest{
//	    StartTime: "09:00",
//	    EndTime:   "18:00",
//	})
package service
