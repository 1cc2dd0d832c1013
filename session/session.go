package session

import (
	"github.com/jrsteele09/go-counter-client/internal/errors"
)

// Session ties the in-memory State to persisted credentials. Reads prefer
// memory and fall back to storage.
type Session struct {
	state *State
	store *TokenStore
}

func New(storage Storage) *Session {
	return &Session{
		state: NewState(),
		store: NewTokenStore(storage),
	}
}

func (s *Session) State() *State { return s.state }

func (s *Session) Store() *TokenStore { return s.store }

func (s *Session) IsAuthenticated() bool { return s.state.IsAuthenticated() }

// Restore recovers a persisted session at startup. A half-written pair is
// discarded.
func (s *Session) Restore() (bool, error) {
	creds, err := s.store.Load()
	if err != nil {
		return false, err
	}
	if creds.Valid() {
		s.state.Set(creds)
		return true, nil
	}
	if !creds.Empty() {
		return false, s.store.Clear()
	}
	return false, nil
}

func (s *Session) Login(c Credentials) error {
	if !c.Valid() {
		return errors.ErrInvalidCredentials
	}
	if err := s.store.Save(c); err != nil {
		return err
	}
	s.state.Set(c)
	return nil
}

// LoginFromURL completes a login from a redirect URL carrying tokens in its
// fragment and returns the URL with the fragment stripped.
func (s *Session) LoginFromURL(rawURL string) (string, error) {
	creds, clean, err := ParseFragment(rawURL)
	if err != nil {
		return clean, err
	}
	if err := s.Login(creds); err != nil {
		return clean, err
	}
	return clean, nil
}

func (s *Session) AccessToken() string {
	if tok := s.state.Credentials().AccessToken; tok != "" {
		return tok
	}
	tok, _ := s.store.AccessToken()
	return tok
}

func (s *Session) RefreshToken() string {
	if tok := s.state.Credentials().RefreshToken; tok != "" {
		return tok
	}
	tok, _ := s.store.RefreshToken()
	return tok
}

// UpdateAccessToken records a refreshed access token, keeping the refresh
// token. It fails with ErrNoRefreshToken once the session has been cleared,
// so an access token is never stored on its own.
func (s *Session) UpdateAccessToken(access string) error {
	if access == "" {
		return errors.Wrapf(errors.ErrInvalidArgument, "[Session UpdateAccessToken] empty access token")
	}
	refresh := s.RefreshToken()
	if refresh == "" {
		return errors.Wrapf(errors.ErrNoRefreshToken, "[Session UpdateAccessToken]")
	}
	if err := s.store.SaveAccessToken(access); err != nil {
		return err
	}
	if s.state.Credentials().RefreshToken == "" {
		s.state.rotate(Credentials{AccessToken: access, RefreshToken: refresh})
		return nil
	}
	s.state.SetAccessToken(access)
	return nil
}

// SetTokens records a rotated pair.
func (s *Session) SetTokens(c Credentials) error {
	if err := s.store.Save(c); err != nil {
		return err
	}
	s.state.rotate(c)
	return nil
}

// Clear drops persisted and in-memory credentials. Memory is cleared even if
// storage fails.
func (s *Session) Clear() error {
	err := s.store.Clear()
	s.state.Clear()
	return err
}
