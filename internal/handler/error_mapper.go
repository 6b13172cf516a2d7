package handler

import (
	"errors"

	"github.com/deliverus/api/internal/model"
	"github.com/deliverus/api/internal/service"
)

// Response messages for service outcomes
const (
	MsgNotLoggedIn        = "User is not logged in"
	MsgNotRestaurantOwner = "User is not the restaurant owner"
	MsgRestaurantNotFound = "Restaurant does not exist"
	MsgScheduleNotFound   = "Schedule not found"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Unknown errors become a generic 500.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var problem *model.ProblemDetails
	if errors.As(err, &problem) {
		return problem
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrNotLoggedIn):
		return model.NewUnauthorizedError(MsgNotLoggedIn)

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotRestaurantOwner):
		p := model.NewForbiddenError(MsgNotRestaurantOwner)
		p.Code = model.ErrCodeNotOwner
		return p

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrRestaurantNotFound):
		p := model.NewNotFoundError("restaurant")
		p.Detail = MsgRestaurantNotFound
		return p
	case errors.Is(err, service.ErrScheduleNotFound):
		p := model.NewNotFoundError("schedule")
		p.Detail = MsgScheduleNotFound
		return p

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
