package main

import (
	"fmt"

	"github.com/jrsteele09/go-counter-client/apiclient"
	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/jrsteele09/go-counter-client/internal/config"
	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/jrsteele09/go-counter-client/internal/logging"
	"github.com/jrsteele09/go-counter-client/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const loginHint = "You are not signed in or your session has expired. Run `counters login <redirect-url>` to sign in again."

// app holds what the subcommands share. It is populated by the root
// PersistentPreRunE once flags have been parsed.
type app struct {
	root *cobra.Command
	v    *viper.Viper

	cfg      config.Config
	logger   zerolog.Logger
	sess     *session.Session
	api      *apiclient.Client
	counters *counters.Client

	jsonOutput bool
}

func newApp() *app {
	a := &app{v: viper.New()}

	a.root = &cobra.Command{
		Use:   "counters",
		Short: "Command line client for the counters API",
		Long: `Track the time elapsed since the events that matter to you.

Sign in through the web app, then pass the URL you were redirected to
to "counters login". Tokens are kept in a local store and refreshed
automatically.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.connect(cmd) },
	}

	flags := a.root.PersistentFlags()
	flags.String("api-url", config.DefaultAPIBaseURL, "Base URL of the counters API")
	flags.String("api-prefix", config.DefaultAPIPrefix, "Path prefix of the API routes")
	flags.String("store", config.DefaultTokenStorePath(), "Path of the session token store")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.Duration("timeout", config.DefaultRequestTimeout, "Per-request timeout")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")

	for key, name := range map[string]string{
		config.KeyAPIURL:         "api-url",
		config.KeyAPIPrefix:      "api-prefix",
		config.KeyStorePath:      "store",
		config.KeyLogLevel:       "log-level",
		config.KeyRequestTimeout: "timeout",
	} {
		cobra.CheckErr(a.v.BindPFlag(key, flags.Lookup(name)))
	}

	a.root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.statusCmd(),
		a.listCmd(),
		a.getCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.archiveCmd(true),
		a.archiveCmd(false),
		a.deleteCmd(),
		a.publicCmd(),
		a.tagsCmd(),
		a.versionCmd(),
	)
	return a
}

// connect builds the client stack and restores any persisted session.
func (a *app) connect(cmd *cobra.Command) error {
	a.cfg = config.NewFromViper(a.v)
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), a.cfg.GetLogLevel(), a.cfg.GetPrettyLogs())

	storage := session.NewFileStorage(a.cfg.GetTokenStorePath(), a.cfg.GetTokenStorePassphrase())
	a.sess = session.New(storage)
	if _, err := a.sess.Restore(); err != nil {
		return fmt.Errorf("restore session from %s: %w", storage.Path(), err)
	}

	api, err := apiclient.New(a.cfg, a.sess, apiclient.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.api = api
	a.counters = counters.New(api)

	a.logger.Debug().
		Str("api", api.BaseURL()).
		Str("store", storage.Path()).
		Bool("authenticated", a.sess.IsAuthenticated()).
		Msg("client ready")
	return nil
}

// describeError turns err into the line shown to the user. Backend messages
// are preferred over the wrapped Go error text.
func (a *app) describeError(err error) string {
	authenticated := a.sess != nil && a.sess.IsAuthenticated()
	switch {
	case errors.Is(err, errors.ErrNoRefreshToken), errors.Is(err, errors.ErrRefreshTokenInvalid):
		return loginHint
	case errors.Is(err, errors.ErrUnauthorized) && !authenticated:
		return loginHint
	}

	var httpErr *errors.HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return "Error: " + httpErr.Message
	}
	return "Error: " + err.Error()
}
