package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. The CLI binds its persistent flags to these.
const (
	KeyAppName         = "app.name"
	KeyEnv             = "app.env"
	KeyLogLevel        = "log.level"
	KeyLogPretty       = "log.pretty"
	KeyAPIURL          = "api.url"
	KeyAPIPrefix       = "api.prefix"
	KeyRequestTimeout  = "api.timeout"
	KeyLogoutTimeout   = "api.logout_timeout"
	KeyStorePath       = "store.path"
	KeyStorePassphrase = "store.passphrase"
	viperEnvPrefix     = "COUNTERS"
)

type viperConfig struct {
	v *viper.Viper
}

var _ Config = viperConfig{}

// NewFromViper registers defaults on v, enables COUNTERS_* environment overrides
// (e.g. COUNTERS_API_URL for api.url) and returns a Config reading from it.
func NewFromViper(v *viper.Viper) Config {
	v.SetDefault(KeyAppName, "Counters")
	v.SetDefault(KeyEnv, "DEV")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogPretty, true)
	v.SetDefault(KeyAPIURL, DefaultAPIBaseURL)
	v.SetDefault(KeyAPIPrefix, DefaultAPIPrefix)
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyLogoutTimeout, DefaultLogoutTimeout)
	v.SetDefault(KeyStorePath, DefaultTokenStorePath())
	v.SetDefault(KeyStorePassphrase, "")

	v.SetEnvPrefix(viperEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return viperConfig{v: v}
}

func (c viperConfig) GetAppName() string  { return c.v.GetString(KeyAppName) }
func (c viperConfig) GetEnv() string      { return c.v.GetString(KeyEnv) }
func (c viperConfig) GetLogLevel() string { return c.v.GetString(KeyLogLevel) }
func (c viperConfig) GetPrettyLogs() bool { return c.v.GetBool(KeyLogPretty) }

func (c viperConfig) GetAPIBaseURL() string {
	return strings.TrimRight(c.v.GetString(KeyAPIURL), "/")
}

func (c viperConfig) GetAPIPrefix() string {
	return NormalisePrefix(c.v.GetString(KeyAPIPrefix))
}

func (c viperConfig) GetRequestTimeout() time.Duration {
	return positiveOr(c.v.GetDuration(KeyRequestTimeout), DefaultRequestTimeout)
}

func (c viperConfig) GetLogoutTimeout() time.Duration {
	return positiveOr(c.v.GetDuration(KeyLogoutTimeout), DefaultLogoutTimeout)
}

func (c viperConfig) GetTokenStorePath() string {
	return c.v.GetString(KeyStorePath)
}

func (c viperConfig) GetTokenStorePassphrase() string {
	return c.v.GetString(KeyStorePassphrase)
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
