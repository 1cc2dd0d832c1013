package apitest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

// tokenIssuer mints HS256 access tokens and opaque refresh tokens and keeps
// a revocation list keyed by jti. Callers hold Backend.mu.
type tokenIssuer struct {
	key       []byte
	accessTTL time.Duration

	refresh map[string]string    // refresh token -> user id
	live    map[string]time.Time // jti -> exp
	revoked map[string]time.Time // jti -> exp
}

func newTokenIssuer(accessTTL time.Duration) *tokenIssuer {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("apitest: signing key: %v", err))
	}
	return &tokenIssuer{
		key:       key,
		accessTTL: accessTTL,
		refresh:   make(map[string]string),
		live:      make(map[string]time.Time),
		revoked:   make(map[string]time.Time),
	}
}

func (ti *tokenIssuer) accessToken(userID string) (string, error) {
	now := time.Now()
	exp := now.Add(ti.accessTTL)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	ti.live[jti] = exp
	return signed, nil
}

func (ti *tokenIssuer) refreshToken(userID string) (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	tok := hex.EncodeToString(b)
	ti.refresh[tok] = userID
	return tok, nil
}

// verify returns the claims of a valid, unrevoked access token.
func (ti *tokenIssuer) verify(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return ti.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if _, ok := ti.revoked[claims.ID]; ok {
		return nil, fmt.Errorf("token revoked")
	}
	return claims, nil
}

func (ti *tokenIssuer) revoke(jti string, exp time.Time) {
	ti.revoked[jti] = exp
	delete(ti.live, jti)
}

// revokeAll invalidates every access token issued so far.
func (ti *tokenIssuer) revokeAll() {
	for jti, exp := range ti.live {
		ti.revoke(jti, exp)
	}
}
