package session

import (
	"github.com/jrsteele09/go-counter-client/token"
	"golang.org/x/oauth2"
)

// Credentials is the token pair issued by the backend. Both fields are set
// or both are empty.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Token converts the pair to an oauth2 bearer token. Expiry is read from the
// access token's exp claim when it is a JWT and left zero otherwise.
func (c Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       token.ExpiresAt(c.AccessToken),
	}
}
