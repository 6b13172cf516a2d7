package service

import "github.com/deliverus/api/internal/model"

// IsOwner reports whether principal owns restaurant. Both must be resolved.
func IsOwner(principal *model.Principal, restaurant *model.Restaurant) bool {
	if principal == nil || restaurant == nil || principal.ID == "" {
		return false
	}
	return principal.ID == restaurant.UserID
}
