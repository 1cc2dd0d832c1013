package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-counter-client/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("COUNTERS_API_URL", "")
	t.Setenv("COUNTERS_API_PREFIX", "")
	t.Setenv("COUNTERS_API_TIMEOUT", "")
	t.Setenv("COUNTERS_STORE_PASSPHRASE", "")

	c := config.New()
	require.Equal(t, config.DefaultAPIBaseURL, c.GetAPIBaseURL())
	require.Equal(t, "/api", c.GetAPIPrefix())
	require.Equal(t, config.DefaultRequestTimeout, c.GetRequestTimeout())
	require.Equal(t, config.DefaultLogoutTimeout, c.GetLogoutTimeout())
	require.Empty(t, c.GetTokenStorePassphrase())
	require.NotEmpty(t, c.GetTokenStorePath())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("COUNTERS_API_URL", "https://counters.example.com/")
	t.Setenv("COUNTERS_API_PREFIX", "v2/")
	t.Setenv("COUNTERS_API_TIMEOUT", "3s")
	t.Setenv("COUNTERS_API_LOGOUT_TIMEOUT", "not-a-duration")
	t.Setenv("COUNTERS_STORE_PATH", "/tmp/session.json")
	t.Setenv("COUNTERS_LOG_PRETTY", "false")

	c := config.New()
	require.Equal(t, "https://counters.example.com", c.GetAPIBaseURL())
	require.Equal(t, "/v2", c.GetAPIPrefix())
	require.Equal(t, 3*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.DefaultLogoutTimeout, c.GetLogoutTimeout())
	require.Equal(t, "/tmp/session.json", c.GetTokenStorePath())
	require.False(t, c.GetPrettyLogs())
}

func TestNormalisePrefix(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"/":         "",
		"api":       "/api",
		"/api/":     "/api",
		" /api/v1 ": "/api/v1",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, config.NormalisePrefix(in))
		})
	}
}

func TestNewFromViper(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := config.NewFromViper(viper.New())
		require.Equal(t, "/api", c.GetAPIPrefix())
		require.Equal(t, config.DefaultRequestTimeout, c.GetRequestTimeout())
		require.Equal(t, "warn", c.GetLogLevel())
	})

	t.Run("explicit values win", func(t *testing.T) {
		v := viper.New()
		c := config.NewFromViper(v)
		v.Set(config.KeyAPIURL, "http://127.0.0.1:9999/")
		v.Set(config.KeyAPIPrefix, "")
		v.Set(config.KeyRequestTimeout, "250ms")
		v.Set(config.KeyStorePassphrase, "hunter2")

		require.Equal(t, "http://127.0.0.1:9999", c.GetAPIBaseURL())
		require.Equal(t, "", c.GetAPIPrefix())
		require.Equal(t, 250*time.Millisecond, c.GetRequestTimeout())
		require.Equal(t, "hunter2", c.GetTokenStorePassphrase())
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("COUNTERS_API_URL", "http://env.example.com")
		c := config.NewFromViper(viper.New())
		require.Equal(t, "http://env.example.com", c.GetAPIBaseURL())
	})
}

func TestStaticAPI(t *testing.T) {
	cfg := config.StaticAPI{BaseURL: "http://127.0.0.1:8080/", Prefix: "v1/"}
	require.Equal(t, "http://127.0.0.1:8080", cfg.GetAPIBaseURL())
	require.Equal(t, "/v1", cfg.GetAPIPrefix())
	require.Equal(t, config.DefaultRequestTimeout, cfg.GetRequestTimeout())
	require.Equal(t, config.DefaultLogoutTimeout, cfg.GetLogoutTimeout())

	cfg.LogoutTimeout = time.Second
	require.Equal(t, time.Second, cfg.GetLogoutTimeout())
}
