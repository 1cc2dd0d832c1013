package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameEnvVar  = "COUNTERS_APP_NAME"
	envEnvVar      = "COUNTERS_APP_ENV"
	logLevelEnvVar = "COUNTERS_LOG_LEVEL"
	prettyEnvVar   = "COUNTERS_LOG_PRETTY"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameEnvVar, "Counters")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envEnvVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "warn")
}

func (e EnvVars) GetPrettyLogs() bool {
	return GetEnvBool(prettyEnvVar, e.GetEnv() == "DEV")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvBool returns defaultValue when the variable is unset or not a valid bool.
func GetEnvBool(envVar string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return b
}

// GetEnvDuration accepts Go duration strings ("30s", "2m").
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
