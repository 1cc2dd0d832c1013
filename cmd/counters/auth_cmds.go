package main

import (
	"fmt"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-counter-client/internal/config"
	"github.com/jrsteele09/go-counter-client/token"
	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <redirect-url>",
		Short: "Sign in with the URL the web login redirected to",
		Long: `Sign in with the URL the web login redirected to.

The URL carries the access and refresh tokens in its fragment, for example
http://localhost:5173/auth/callback#accessToken=...&refreshToken=...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.sess.LoginFromURL(args[0]); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			u, err := a.counters.Me(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayUser(u.Name, u.Email))
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.sess.IsAuthenticated() && a.sess.RefreshToken() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := a.api.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.counters.Me(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, u)
			}
			w := newTable(cmd)
			fmt.Fprintf(w, "ID\t%s\n", u.ID)
			fmt.Fprintf(w, "Name\t%s\n", u.Name)
			fmt.Fprintf(w, "Email\t%s\n", u.Email)
			fmt.Fprintf(w, "Joined\t%s\n", formatDate(u.CreatedAt))
			return w.Flush()
		},
	}
}

type sessionStatus struct {
	Store         string     `json:"store"`
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Expired       bool       `json:"expired"`
}

// statusCmd reports the local session without calling the API.
func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := sessionStatus{
				Store:         a.cfg.GetTokenStorePath(),
				Authenticated: a.sess.IsAuthenticated(),
			}
			tok := a.sess.State().Credentials().Token()
			if !tok.Expiry.IsZero() {
				st.ExpiresAt = &tok.Expiry
				st.Expired = !tok.Expiry.After(time.Now())
			}
			if claims, err := token.Inspect(tok.AccessToken); err == nil {
				st.Subject = claims.Subject
			}

			if a.jsonOutput {
				return a.printJSON(cmd, st)
			}
			w := newTable(cmd)
			fmt.Fprintf(w, "Store\t%s\n", st.Store)
			if !st.Authenticated {
				fmt.Fprintf(w, "Session\tnot logged in\n")
				return w.Flush()
			}
			fmt.Fprintf(w, "Session\tlogged in\n")
			if st.Subject != "" {
				fmt.Fprintf(w, "Subject\t%s\n", st.Subject)
			}
			if st.ExpiresAt != nil {
				state := "expires"
				if st.Expired {
					state = "expired (will refresh on next request)"
				}
				fmt.Fprintf(w, "Access token\t%s %s\n", state, st.ExpiresAt.Local().Format(time.RFC1123))
			}
			return w.Flush()
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			a.cfg = config.NewFromViper(a.v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			banner := figure.NewFigure(a.cfg.GetAppName(), "cybermedium", true)
			fmt.Fprintln(cmd.OutOrStdout(), banner.String())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", a.root.Name(), version)
			return nil
		},
	}
}
