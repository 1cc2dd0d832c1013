package session

import (
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-counter-client/internal/errors"
)

// ParseFragment reads credentials delivered as
// #accessToken=...&refreshToken=... and returns them with the URL minus its
// fragment. The query string is never consulted.
func ParseFragment(rawURL string) (Credentials, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Credentials{}, "", fmt.Errorf("[ParseFragment] %w: %w", errors.ErrInvalidArgument, err)
	}

	params, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return Credentials{}, "", fmt.Errorf("[ParseFragment] fragment: %w: %w", errors.ErrInvalidArgument, err)
	}

	creds := Credentials{
		AccessToken:  params.Get(KeyAccessToken),
		RefreshToken: params.Get(KeyRefreshToken),
	}

	u.Fragment = ""
	u.RawFragment = ""
	clean := u.String()

	switch {
	case creds.Empty():
		return Credentials{}, clean, errors.ErrNoFragmentTokens
	case !creds.Valid():
		return Credentials{}, clean, errors.ErrInvalidCredentials
	}
	return creds, clean, nil
}
