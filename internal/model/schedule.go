package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Schedule validation messages
const (
	MsgScheduleTimesRequired = "startTime and endTime are required"
	MsgScheduleDeleted       = "Schedule deleted successfully"
)

var (
	// ErrInvalidTimeFormat is wrapped by ValidateTimeFormat failures.
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrInvalidTimeRange is wrapped by ValidateEndTimeAfterStartTime failures.
	ErrInvalidTimeRange = errors.New("invalid time range")
)

// HH:MM or HH:MM:SS, 24h
var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// Schedule is an operating interval of a restaurant, expressed as same-day
// times of day. Times are stored exactly as submitted.
type Schedule struct {
	ID           string    `json:"id"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime"`
	RestaurantID string    `json:"restaurantId"`
	CreatedOn    time.Time `json:"createdAt"`
	UpdatedOn    time.Time `json:"updatedAt"`
}

// ScheduleRequest is the payload for creating or updating a schedule
type ScheduleRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ScheduleDeleted is returned after a successful delete
type ScheduleDeleted struct {
	Message string `json:"message"`
}

// Validate runs presence, format and range checks in that order. Later
// stages only run when the earlier ones pass.
func (r *ScheduleRequest) Validate() []FieldError {
	if r.StartTime == "" || r.EndTime == "" {
		field := "startTime"
		if r.StartTime != "" {
			field = "endTime"
		}
		return []FieldError{{Field: field, Message: MsgScheduleTimesRequired}}
	}

	var errs []FieldError
	if err := ValidateTimeFormat(r.StartTime); err != nil {
		errs = append(errs, FieldError{Field: "startTime", Message: "startTime must be in HH:MM or HH:MM:SS format"})
	}
	if err := ValidateTimeFormat(r.EndTime); err != nil {
		errs = append(errs, FieldError{Field: "endTime", Message: "endTime must be in HH:MM or HH:MM:SS format"})
	}
	if len(errs) > 0 {
		return errs
	}

	if err := ValidateEndTimeAfterStartTime(r.EndTime, r.StartTime); err != nil {
		return []FieldError{{Field: "endTime", Message: "endTime must be after startTime"}}
	}
	return nil
}

// ValidateTimeFormat checks that value is a 24h time of day.
func ValidateTimeFormat(value string) error {
	if !timeOfDayPattern.MatchString(value) {
		return fmt.Errorf("%w: %q is not HH:MM or HH:MM:SS", ErrInvalidTimeFormat, value)
	}
	return nil
}

// ValidateEndTimeAfterStartTime checks that endTime is strictly later than
// startTime on the same day. There is no wraparound past midnight, and
// "09:00" equals "09:00:00".
func ValidateEndTimeAfterStartTime(endTime, startTime string) error {
	end, err := SecondsOfDay(endTime)
	if err != nil {
		return err
	}
	start, err := SecondsOfDay(startTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidTimeRange, endTime, startTime)
	}
	return nil
}

// SecondsOfDay converts a validated time of day to seconds since midnight.
func SecondsOfDay(value string) (int, error) {
	if err := ValidateTimeFormat(value); err != nil {
		return 0, err
	}
	parts := strings.Split(value, ":")
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTimeFormat, err)
		}
		total += n * mult
	}
	return total, nil
}
