package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetPrettyLogs() bool
}

// APIConfig describes how to reach the counters backend.
type APIConfig interface {
	GetAPIBaseURL() string
	GetAPIPrefix() string
	GetRequestTimeout() time.Duration
	GetLogoutTimeout() time.Duration
}

// StorageConfig describes where session tokens are persisted between runs.
type StorageConfig interface {
	GetTokenStorePath() string
	GetTokenStorePassphrase() string
}

type mainConfig struct {
	EnvVars
	API
	Storage
}

func New() Config {
	return mainConfig{}
}
