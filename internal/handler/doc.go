// Package handler provides HTTP request handlers for the DeliverUS API.
//
// # Handler Pattern
//
//   - Constructor function (NewXxxHandler) accepts its dependencies
//   - Methods handle specific HTTP endpoints
//   - Response helpers from response.go standardize output format
//   - Service errors are mapped to RFC 9457 Problem Details by MapServiceError
//
// Successful responses wrap their payload in {"data": ...} with optional
// HATEOAS links. The caller is read from the request context, where
// middleware.Auth stores it.
//
// # Example Usage
//
//	schedules := handler.NewScheduleHandler(handler.ScheduleHandlerConfig{
//	    ScheduleService: scheduleService,
//	})
//	mux.Handle("GET /v1/restaurants/{restaurantId}/schedules", auth(http.HandlerFunc(schedules.List)))
package handler
