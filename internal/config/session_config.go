package config

type SessionConfig interface {
	GetLoginRoute() string
	GetRefreshSingleFlight() bool
}

type Session struct {
	LoginRoute string `envconfig:"CCJ_LOGIN_ROUTE" default:"/login"`
	// Coalesce concurrent refreshes of the same refresh token into one call.
	RefreshSingleFlight bool `envconfig:"CCJ_REFRESH_SINGLEFLIGHT" default:"true"`
}

var _ SessionConfig = Session{}

func (s Session) GetLoginRoute() string {
	return s.LoginRoute
}

func (s Session) GetRefreshSingleFlight() bool {
	return s.RefreshSingleFlight
}
