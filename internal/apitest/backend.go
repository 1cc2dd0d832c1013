// Package apitest is an in-memory counters backend for tests. It implements
// the REST contract the client consumes: bearer-protected routes, token
// refresh and logout, counters CRUD and the public listing. Hooks let tests
// expire tokens, fail or stall the refresh endpoint and force statuses.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/jrsteele09/go-counter-client/internal/config"
	"github.com/jrsteele09/go-counter-client/session"
)

const (
	DefaultPrefix    = "/api"
	defaultAccessTTL = 15 * time.Minute
)

// RecordedRequest is one request as the backend received it.
type RecordedRequest struct {
	Method    string
	Path      string // without the API prefix
	Query     url.Values
	Bearer    string
	RequestID string
	Body      []byte
}

type Backend struct {
	Server *httptest.Server
	prefix string

	mu          sync.Mutex
	tokens      *tokenIssuer
	users       map[string]counters.User
	counters    map[string]*counters.Counter
	tags        []counters.Tag
	requests    []RecordedRequest
	routeStatus map[string]int

	rotateRefresh bool
	refreshStatus int
	refreshGate   chan struct{}

	refreshCalls atomic.Int64
	logoutCalls  atomic.Int64
}

type Option func(*Backend)

func WithPrefix(prefix string) Option {
	return func(b *Backend) { b.prefix = config.NormalisePrefix(prefix) }
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(b *Backend) { b.tokens.accessTTL = ttl }
}

// New starts a backend that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Backend {
	t.Helper()

	b := &Backend{
		prefix:      DefaultPrefix,
		tokens:      newTokenIssuer(defaultAccessTTL),
		users:       make(map[string]counters.User),
		counters:    make(map[string]*counters.Counter),
		routeStatus: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(func() {
		b.ReleaseRefresh()
		b.Server.Close()
	})
	return b
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	public := []func(http.HandlerFunc) http.HandlerFunc{b.recordMiddleware, b.overrideMiddleware}
	protected := append(public[:len(public):len(public)], b.requireAuth)

	handle := func(pattern string, h http.HandlerFunc, mw []func(http.HandlerFunc) http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+b.prefix+path, chainMiddleware(h, mw...))
	}

	handle("POST /auth/refresh", b.handleRefresh, public)
	handle("POST /auth/logout", b.handleLogout, public)

	handle("GET /users/me", b.handleMe, protected)

	handle("GET /counters/mine", b.handleMine, protected)
	handle("GET /counters/public", b.handlePublic, public)
	handle("POST /counters", b.handleCreate, protected)
	handle("GET /counters/{id}", b.handleGet, protected)
	handle("PATCH /counters/{id}", b.handleUpdate, protected)
	handle("DELETE /counters/{id}", b.handleDelete, protected)
	handle("PATCH /counters/{id}/archive", b.handleArchive(true), protected)
	handle("PATCH /counters/{id}/unarchive", b.handleArchive(false), protected)

	handle("GET /tags", b.handleTags, public)

	mux.HandleFunc("/", chainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
	}, b.recordMiddleware))
	return mux
}

func (b *Backend) URL() string    { return b.Server.URL }
func (b *Backend) Prefix() string { return b.prefix }

// Config points a client at this backend with a short logout timeout.
func (b *Backend) Config() config.StaticAPI {
	return config.StaticAPI{
		BaseURL:        b.Server.URL,
		Prefix:         b.prefix,
		RequestTimeout: 5 * time.Second,
		LogoutTimeout:  time.Second,
	}
}

// SeedUser registers a user and returns it.
func (b *Backend) SeedUser(email, name string) counters.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := counters.User{ID: uuid.NewString(), Email: email, Name: name, CreatedAt: time.Now().UTC()}
	b.users[u.ID] = u
	return u
}

// Login issues a token pair for userID as the OAuth redirect would.
func (b *Backend) Login(t testing.TB, userID string) session.Credentials {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	access, err := b.tokens.accessToken(userID)
	if err != nil {
		t.Fatalf("apitest: %v", err)
	}
	refresh, err := b.tokens.refreshToken(userID)
	if err != nil {
		t.Fatalf("apitest: %v", err)
	}
	return session.Credentials{AccessToken: access, RefreshToken: refresh}
}

// RedirectURL is the post-login URL carrying creds in its fragment.
func (b *Backend) RedirectURL(creds session.Credentials) string {
	frag := url.Values{}
	frag.Set(session.KeyAccessToken, creds.AccessToken)
	frag.Set(session.KeyRefreshToken, creds.RefreshToken)
	return "http://localhost:5173/auth/callback#" + frag.Encode()
}

func (b *Backend) SeedTag(name string) counters.Tag {
	b.mu.Lock()
	defer b.mu.Unlock()

	tag := counters.Tag{ID: uuid.NewString(), Name: name}
	b.tags = append(b.tags, tag)
	return tag
}

// SeedCounter stores c for ownerID, filling in ids and timestamps.
func (b *Backend) SeedCounter(ownerID string, c counters.Counter) counters.Counter {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.StartDate.IsZero() {
		c.StartDate = now
	}
	c.UpdatedAt = now
	c.UserID = ownerID
	if c.Tags == nil {
		c.Tags = []counters.Tag{}
	}
	stored := c
	b.counters[c.ID] = &stored
	return c
}

// ExpireAccessTokens revokes every access token issued so far. Tokens issued
// afterwards are valid.
func (b *Backend) ExpireAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens.revokeAll()
}

// RevokeRefreshTokens forgets every refresh token so refreshes return 401.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.tokens.refresh)
}

// SetRefreshStatus makes the refresh endpoint fail with status. Zero restores
// normal behaviour.
func (b *Backend) SetRefreshStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
}

// RotateRefreshTokens makes refreshes issue a new refresh token.
func (b *Backend) RotateRefreshTokens(rotate bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rotateRefresh = rotate
}

// HoldRefresh stalls refresh calls until ReleaseRefresh.
func (b *Backend) HoldRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refreshGate == nil {
		b.refreshGate = make(chan struct{})
	}
}

func (b *Backend) ReleaseRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refreshGate != nil {
		close(b.refreshGate)
		b.refreshGate = nil
	}
}

// SetRouteStatus forces every call to route (e.g. "GET /users/me") to fail
// with status. Zero clears it.
func (b *Backend) SetRouteStatus(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.routeStatus, route)
		return
	}
	b.routeStatus[route] = status
}

func (b *Backend) RefreshCalls() int { return int(b.refreshCalls.Load()) }
func (b *Backend) LogoutCalls() int  { return int(b.logoutCalls.Load()) }

func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// RequestsTo filters Requests by method and prefix-less path.
func (b *Backend) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// RefreshTokenValid reports whether tok is still accepted by the backend.
func (b *Backend) RefreshTokenValid(tok string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens.refresh[tok]
	return ok
}
