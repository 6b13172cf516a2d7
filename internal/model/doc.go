// Package model defines domain entities and data structures for the DeliverUS API.
//
// The model package contains the schedule, restaurant and principal types,
// request payloads, and the RFC 9457 error representation shared by all layers.
//
// # Domain Entities
//
//   - Schedule: a same-day operating interval owned by a restaurant
//   - Restaurant: the tenant; UserID identifies its owner
//   - Product: references at most one schedule
//   - Principal: the authenticated caller, built from token claims
//
// # Time Validation
//
// Schedule times are 24h HH:MM or HH:MM:SS strings. ValidateTimeFormat and
// ValidateEndTimeAfterStartTime are pure and return errors wrapping
// ErrInvalidTimeFormat and ErrInvalidTimeRange:
//
//	if err := model.ValidateEndTimeAfterStartTime(end, start); errors.Is(err, model.ErrInvalidTimeRange) {
//	    // end is not after start
//	}
//
// ScheduleRequest.Validate composes presence, format and range checks and
// returns field errors ready for NewValidationError.
//
// # Error Responses
//
// ProblemDetails implements error, so services can return it directly and
// handlers can recover it with errors.As.
package model
