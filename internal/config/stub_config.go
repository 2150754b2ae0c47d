package config

import "time"

// StubConfig configures the local development backend in package server.
type StubConfig interface {
	GetSigningKey() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Stub struct {
	SigningKey         string        `envconfig:"STUB_SIGNING_KEY" default:"dev-signing-key"`
	AccessTokenExpiry  time.Duration `envconfig:"STUB_ACCESS_TOKEN_EXPIRY" default:"5m"`
	RefreshTokenExpiry time.Duration `envconfig:"STUB_REFRESH_TOKEN_EXPIRY" default:"168h"`
}

var _ StubConfig = Stub{}

func (s Stub) GetSigningKey() string {
	return s.SigningKey
}

func (s Stub) GetAccessTokenExpiry() time.Duration {
	return s.AccessTokenExpiry
}

func (s Stub) GetRefreshTokenExpiry() time.Duration {
	return s.RefreshTokenExpiry
}
