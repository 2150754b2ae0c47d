package config

import (
	"fmt"
	"os"
)

type EnvConfig interface {
	GetEnv() string
	GetAppName() string
	GetDataFolder() string
}

type EnvVars struct {
	Env        string `envconfig:"ENV" default:"DEV"`
	AppName    string `envconfig:"APP_NAME" default:"CCJ Console"`
	DataFolder string `envconfig:"CCJ_DATA_FOLDER" default:"./data"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

// GetPortEnv returns a listen address built from the PORT variable.
func GetPortEnv(defaultPort string) string {
	port := GetEnv("PORT", defaultPort)
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
