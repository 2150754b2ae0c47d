package config

import "time"

type HTTPConfig interface {
	GetHTTPTimeout() time.Duration
}

type HTTP struct {
	Timeout time.Duration `envconfig:"CCJ_HTTP_TIMEOUT" default:"30s"`
}

var _ HTTPConfig = HTTP{}

func (h HTTP) GetHTTPTimeout() time.Duration {
	return h.Timeout
}
