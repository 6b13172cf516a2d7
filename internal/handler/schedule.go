package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/deliverus/api/internal/middleware"
	"github.com/deliverus/api/internal/model"
	"github.com/deliverus/api/internal/service"
)

// ScheduleHandler handles restaurant schedule endpoints
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// ScheduleHandlerConfig holds the dependencies of ScheduleHandler
type ScheduleHandlerConfig struct {
	ScheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(cfg ScheduleHandlerConfig) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: cfg.ScheduleService}
}

// ScheduleRouteMiddleware groups the middleware applied per route class.
// Authenticated wraps every route, Mutation adds to writes and Create adds
// to POST only.
type ScheduleRouteMiddleware struct {
	Authenticated []middleware.Middleware
	Mutation      []middleware.Middleware
	Create        []middleware.Middleware
}

// RegisterRoutes registers schedule routes
func (h *ScheduleHandler) RegisterRoutes(mux *http.ServeMux, mw ScheduleRouteMiddleware) {
	wrap := func(fn http.HandlerFunc, groups ...[]middleware.Middleware) http.Handler {
		var chain []middleware.Middleware
		for _, g := range groups {
			chain = append(chain, g...)
		}
		return middleware.Chain(fn, chain...)
	}

	mux.Handle("GET /v1/restaurants/{restaurantId}/schedules",
		wrap(h.List, mw.Authenticated))
	mux.Handle("POST /v1/restaurants/{restaurantId}/schedules",
		wrap(h.Create, mw.Authenticated, mw.Mutation, mw.Create))
	mux.Handle("PUT /v1/restaurants/{restaurantId}/schedules/{scheduleId}",
		wrap(h.Update, mw.Authenticated, mw.Mutation))
	mux.Handle("DELETE /v1/restaurants/{restaurantId}/schedules/{scheduleId}",
		wrap(h.Destroy, mw.Authenticated, mw.Mutation))
}

// List handles GET /v1/restaurants/{restaurantId}/schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")

	schedules, err := h.scheduleService.ListByRestaurant(r.Context(), middleware.GetPrincipal(r.Context()), restaurantID)
	if err != nil {
		h.handleError(w, r, err, "list schedules")
		return
	}

	WriteData(w, http.StatusOK, schedules, map[string]string{
		"self":       "/v1/restaurants/" + restaurantID + "/schedules",
		"restaurant": "/v1/restaurants/" + restaurantID,
	})
}

// Create handles POST /v1/restaurants/{restaurantId}/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")

	req, ok := decodeScheduleRequest(w, r)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.Create(r.Context(), middleware.GetPrincipal(r.Context()), restaurantID, req)
	if err != nil {
		h.handleError(w, r, err, "create schedule")
		return
	}

	WriteData(w, http.StatusCreated, schedule, scheduleLinks(schedule))
}

// Update handles PUT /v1/restaurants/{restaurantId}/schedules/{scheduleId}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	scheduleID := r.PathValue("scheduleId")

	req, ok := decodeScheduleRequest(w, r)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.Update(r.Context(), middleware.GetPrincipal(r.Context()), restaurantID, scheduleID, req)
	if err != nil {
		h.handleError(w, r, err, "update schedule")
		return
	}

	WriteData(w, http.StatusOK, schedule, scheduleLinks(schedule))
}

// Destroy handles DELETE /v1/restaurants/{restaurantId}/schedules/{scheduleId}
func (h *ScheduleHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("restaurantId")
	scheduleID := r.PathValue("scheduleId")

	result, err := h.scheduleService.Destroy(r.Context(), middleware.GetPrincipal(r.Context()), restaurantID, scheduleID)
	if err != nil {
		h.handleError(w, r, err, "delete schedule")
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// decodeScheduleRequest reads the body. An empty body decodes to an empty
// request so the service reports the missing times.
func decodeScheduleRequest(w http.ResponseWriter, r *http.Request) (*model.ScheduleRequest, bool) {
	var req model.ScheduleRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return nil, false
	}
	return &req, true
}

func scheduleLinks(s *model.Schedule) map[string]string {
	base := "/v1/restaurants/" + s.RestaurantID + "/schedules"
	return map[string]string{
		"self":       base + "/" + s.ID,
		"collection": base,
	}
}

func (h *ScheduleHandler) handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	problem := MapServiceErrorWithContext(err, operation)
	if problem.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "schedule request failed",
			slog.String("operation", operation),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, r, problem)
}
