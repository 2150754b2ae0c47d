package server

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthMe      = "/auth/me"

	// Resource Routes
	RouteObjects       = "/objects"
	RouteObject        = "/objects/{id}"
	RouteNotifications = "/notifications"

	// Debug Routes
	RouteExpireSession = "/debug/expire-session"
)
