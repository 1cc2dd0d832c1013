package apiclient

// Backend routes, relative to the configured API prefix.
const (
	// Auth
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	// Users
	RouteUsersMe = "/users/me"

	// Counters
	RouteCounters       = "/counters"
	RouteCountersMine   = "/counters/mine"
	RouteCountersPublic = "/counters/public"

	// Tags
	RouteTags = "/tags"
)
