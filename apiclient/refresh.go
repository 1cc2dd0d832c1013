package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/jrsteele09/go-counter-client/session"
)

// Refresh exchanges the session's refresh token for a new access token and
// stores it. An auth-class rejection from the backend drops the session
// before the error is returned.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	refresh := c.sess.RefreshToken()
	if refresh == "" {
		c.metrics.observeRefresh(refreshMissing)
		return "", fmt.Errorf("[Client Refresh] %w", errors.ErrNoRefreshToken)
	}

	c.logger.Debug().Msg("refreshing access token")
	resp, err := c.exchange(ctx, refresh)
	if err != nil {
		if errors.IsAuthClass(err) {
			c.metrics.observeRefresh(refreshInvalid)
			c.forcedLogout(ctx)
			return "", fmt.Errorf("[Client Refresh] %w: %w", errors.ErrRefreshTokenInvalid, err)
		}
		c.metrics.observeRefresh(refreshFailed)
		return "", fmt.Errorf("[Client Refresh] %w: %w", errors.ErrRefreshFailed, err)
	}

	if err := c.storeRefreshed(refresh, resp); err != nil {
		c.metrics.observeRefresh(refreshFailed)
		return "", fmt.Errorf("[Client Refresh] %w: store token: %w", errors.ErrRefreshFailed, err)
	}

	c.metrics.observeRefresh(refreshSuccess)
	c.logger.Info().Msg("access token refreshed")
	return resp.AccessToken, nil
}

// storeRefreshed saves resp only if the session still holds the refresh token
// that was exchanged. A logout during the exchange wins.
func (c *Client) storeRefreshed(exchanged string, resp *RefreshResponse) error {
	c.logoutMu.Lock()
	defer c.logoutMu.Unlock()

	if c.sess.RefreshToken() != exchanged {
		c.logger.Debug().Msg("session changed during refresh, discarding new token")
		return errors.ErrSessionChanged
	}
	if resp.RefreshToken != "" && resp.RefreshToken != exchanged {
		return c.sess.SetTokens(session.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	}
	return c.sess.UpdateAccessToken(resp.AccessToken)
}

// exchange calls the refresh endpoint with no side effects on the session.
func (c *Client) exchange(ctx context.Context, refresh string) (*RefreshResponse, error) {
	body, err := json.Marshal(RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return nil, err
	}

	resp, err := c.plain(ctx, NewRequest(http.MethodPost, RouteAuthRefresh, body))
	if err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("refresh response has no access token")
	}
	return &out, nil
}
