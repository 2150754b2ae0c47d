package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	BackendsConfig
	HTTPConfig
	StoreConfig
	SessionConfig
	StubConfig
}

type mainConfig struct {
	EnvVars
	Backends
	HTTP
	Store
	Session
	Stub
}

var _ Config = (*mainConfig)(nil)

// New returns the tag defaults overlaid with the process environment. It
// neither reads .env files nor validates; Load is the strict variant.
// A value that cannot be parsed is logged and the defaults are kept.
func New() Config {
	c := &mainConfig{}
	if err := envconfig.Process("", c); err != nil {
		log.Err(err).Msg("invalid configuration in environment, using defaults")
		return defaults()
	}
	return c
}

// defaults returns the struct tag defaults, ignoring the environment.
func defaults() *mainConfig {
	return &mainConfig{
		EnvVars: EnvVars{Env: "DEV", AppName: "CCJ Console", DataFolder: "./data"},
		Backends: Backends{
			APIURL:           "http://localhost:8080",
			NotificationsURL: "http://localhost:8081",
			VisitsURL:        "http://localhost:8082",
			TicketsURL:       "http://localhost:8083",
			AIURL:            "http://localhost:8084",
			FilesURL:         "http://localhost:8085",
		},
		HTTP:    HTTP{Timeout: 30 * time.Second},
		Store:   Store{Kind: string(StoreFile), RedisAddr: "localhost:6379", RedisKeyPrefix: "ccj:"},
		Session: Session{LoginRoute: "/login", RefreshSingleFlight: true},
		Stub:    Stub{SigningKey: "dev-signing-key", AccessTokenExpiry: 5 * time.Minute, RefreshTokenExpiry: 168 * time.Hour},
	}
}

// Load reads an optional .env file, then the process environment, and
// validates the result.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
		log.Debug().Msg("no .env file found, using process environment")
	}

	c := &mainConfig{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config from environment: %w", err)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

var validate = validator.New()

// Validate checks the struct tag constraints of a loaded configuration.
func Validate(c Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
