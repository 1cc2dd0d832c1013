package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// Logout ends the session. It is a no-op when there is nothing to end.
// Local state is always cleared before the backend is told; a failed backend
// call is logged and not returned. The only error is a failure to clear
// persisted tokens.
func (c *Client) Logout(ctx context.Context) error {
	return c.logout(ctx, false)
}

// forcedLogout is Logout triggered by an unrecoverable auth failure.
func (c *Client) forcedLogout(ctx context.Context) {
	_ = c.logout(ctx, true)
}

func (c *Client) logout(ctx context.Context, forced bool) error {
	c.logoutMu.Lock()
	defer c.logoutMu.Unlock()

	refresh := c.sess.RefreshToken()
	if !c.sess.IsAuthenticated() && refresh == "" {
		return nil
	}
	if forced {
		c.metrics.observeForcedLogout()
		c.logger.Warn().Msg("authentication lost, logging out")
	}

	// Backend calls outlive a cancelled caller but are bounded by the logout
	// timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.GetLogoutTimeout())
	defer cancel()

	access := c.sess.AccessToken()
	if access == "" && refresh != "" {
		// one attempt so the revocation call can be authenticated
		if resp, err := c.exchange(ctx, refresh); err == nil {
			access = resp.AccessToken
		} else {
			c.logger.Debug().Err(err).Msg("logout: token exchange failed")
		}
	}

	clearErr := c.sess.Clear()
	if clearErr != nil {
		c.logger.Warn().Err(clearErr).Msg("logout: failed to clear stored tokens")
	}
	c.logger.Info().Msg("session cleared")

	if access != "" && refresh != "" {
		c.notifyLogout(ctx, access, refresh)
	}
	return clearErr
}

func (c *Client) notifyLogout(ctx context.Context, access, refresh string) {
	body, err := json.Marshal(RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return
	}
	req := NewRequest(http.MethodPost, RouteAuthLogout, body)
	setBearer(req, access)

	if _, err := c.plain(ctx, req); err != nil {
		c.logger.Warn().Err(err).Msg("logout: backend revocation failed")
	}
}
