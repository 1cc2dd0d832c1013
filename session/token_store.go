package session

import (
	"fmt"

	"github.com/jrsteele09/go-counter-client/internal/errors"
)

// TokenStore persists Credentials in a Storage under KeyAccessToken and
// KeyRefreshToken.
type TokenStore struct {
	storage Storage
}

func NewTokenStore(storage Storage) *TokenStore {
	return &TokenStore{storage: storage}
}

// Load returns whatever is persisted. The result may be partial if the
// backing store was edited externally; callers check Valid.
func (ts *TokenStore) Load() (Credentials, error) {
	access, err := ts.AccessToken()
	if err != nil {
		return Credentials{}, err
	}
	refresh, err := ts.RefreshToken()
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

func (ts *TokenStore) AccessToken() (string, error) {
	return ts.get(KeyAccessToken)
}

func (ts *TokenStore) RefreshToken() (string, error) {
	return ts.get(KeyRefreshToken)
}

func (ts *TokenStore) Save(c Credentials) error {
	if !c.Valid() {
		return errors.ErrInvalidCredentials
	}
	if err := ts.storage.Set(KeyAccessToken, c.AccessToken); err != nil {
		return errors.Wrapf(err, "[TokenStore Save] access token")
	}
	if err := ts.storage.Set(KeyRefreshToken, c.RefreshToken); err != nil {
		return errors.Wrapf(err, "[TokenStore Save] refresh token")
	}
	return nil
}

func (ts *TokenStore) SaveAccessToken(access string) error {
	if access == "" {
		return fmt.Errorf("[TokenStore SaveAccessToken] %w: empty access token", errors.ErrInvalidArgument)
	}
	if err := ts.storage.Set(KeyAccessToken, access); err != nil {
		return errors.Wrapf(err, "[TokenStore SaveAccessToken]")
	}
	return nil
}

// Clear removes both keys in one call.
func (ts *TokenStore) Clear() error {
	if err := ts.storage.Delete(KeyAccessToken, KeyRefreshToken); err != nil {
		return errors.Wrapf(err, "[TokenStore Clear]")
	}
	return nil
}

func (ts *TokenStore) get(key string) (string, error) {
	v, ok, err := ts.storage.Get(key)
	if err != nil {
		return "", errors.Wrapf(err, "[TokenStore get] %s", key)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
