package model

import "time"

// Principal roles
const (
	RoleOwner    = "owner"
	RoleCustomer = "customer"
)

// Restaurant is the tenant that owns schedules. UserID is the owner.
type Restaurant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedOn time.Time `json:"createdAt"`
}

// Product references at most one schedule of its restaurant.
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	RestaurantID string  `json:"restaurantId"`
	ScheduleID   *string `json:"scheduleId,omitempty"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	ID   string
	Role string
}

// HasRole reports whether the principal carries role.
func (p *Principal) HasRole(role string) bool {
	return p != nil && p.Role == role
}
