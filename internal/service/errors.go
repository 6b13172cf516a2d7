package service

import "errors"

// Centralized service layer errors.
// Domain failures are returned as these sentinels, except payload validation
// which returns a *model.ProblemDetails carrying the field errors.

// ===== Authentication Errors =====
var (
	ErrNotLoggedIn = errors.New("user is not logged in")
)

// ===== Authorization Errors =====
var (
	ErrNotRestaurantOwner = errors.New("user is not the restaurant owner")
)

// ===== Not Found Errors =====
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrScheduleNotFound   = errors.New("schedule not found")
)
