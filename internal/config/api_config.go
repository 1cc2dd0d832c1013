package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLEnvVar     = "COUNTERS_API_URL"
	apiPrefixEnvVar      = "COUNTERS_API_PREFIX"
	requestTimeoutEnvVar = "COUNTERS_API_TIMEOUT"
	logoutTimeoutEnvVar  = "COUNTERS_API_LOGOUT_TIMEOUT"

	DefaultAPIBaseURL     = "http://localhost:3000"
	DefaultAPIPrefix      = "/api"
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogoutTimeout  = 5 * time.Second
)

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLEnvVar, DefaultAPIBaseURL), "/")
}

// GetAPIPrefix always returns either "" or a path starting with "/" and without a trailing slash.
func (API) GetAPIPrefix() string {
	return NormalisePrefix(GetEnv(apiPrefixEnvVar, DefaultAPIPrefix))
}

func (API) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutEnvVar, DefaultRequestTimeout)
}

func (API) GetLogoutTimeout() time.Duration {
	return GetEnvDuration(logoutTimeoutEnvVar, DefaultLogoutTimeout)
}

func NormalisePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// StaticAPI is an APIConfig with fixed values, for embedding the client in
// another program. Zero durations fall back to the defaults.
type StaticAPI struct {
	BaseURL        string
	Prefix         string
	RequestTimeout time.Duration
	LogoutTimeout  time.Duration
}

var _ APIConfig = StaticAPI{}

func (s StaticAPI) GetAPIBaseURL() string { return strings.TrimRight(s.BaseURL, "/") }
func (s StaticAPI) GetAPIPrefix() string  { return NormalisePrefix(s.Prefix) }

func (s StaticAPI) GetRequestTimeout() time.Duration {
	return positiveOr(s.RequestTimeout, DefaultRequestTimeout)
}

func (s StaticAPI) GetLogoutTimeout() time.Duration {
	return positiveOr(s.LogoutTimeout, DefaultLogoutTimeout)
}
