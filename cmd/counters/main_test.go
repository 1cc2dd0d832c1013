package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/jrsteele09/go-counter-client/internal/apitest"
	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	backend *apitest.Backend
	user    counters.User
	store   string
	ctx     context.Context
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := apitest.New(t)
	return &testFixture{
		backend: backend,
		user:    backend.SeedUser("grace@example.com", "Grace Hopper"),
		store:   filepath.Join(t.TempDir(), "session.json"),
		ctx:     context.Background(),
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (f *testFixture) run(t *testing.T, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	base := []string{"--api-url", f.backend.URL(), "--store", f.store, "--log-level", "error"}
	code := run(f.ctx, append(base, args...), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()

	res := f.run(t, "login", f.backend.RedirectURL(f.backend.Login(t, f.user.ID)))
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Logged in as Grace Hopper <grace@example.com>")
}

func TestRootCmd_Structure(t *testing.T) {
	a := newApp()

	assert.Equal(t, "counters", a.root.Use)
	assert.NotEmpty(t, a.root.Short)

	names := make(map[string]bool)
	for _, cmd := range a.root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{
		"login", "logout", "whoami", "status", "list", "get", "create", "update",
		"archive", "unarchive", "delete", "public", "tags", "version",
	} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"api-url", "api-prefix", "store", "log-level", "timeout", "json"} {
		assert.NotNil(t, a.root.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}

	create, _, err := a.root.Find([]string{"create"})
	require.NoError(t, err)
	title := create.Flags().Lookup("title")
	require.NotNil(t, title)
	assert.Equal(t, "t", title.Shorthand)

	list, _, err := a.root.Find([]string{"list"})
	require.NoError(t, err)
	assert.NotNil(t, list.Flags().Lookup("archived"))
}

func TestCLI_LoginAndStatus(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "status")
	require.Equal(t, 0, res.code)
	require.Contains(t, res.stdout, "not logged in")

	f.login(t)

	info, err := os.Stat(f.store)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	res = f.run(t, "status")
	require.Equal(t, 0, res.code)
	require.NotContains(t, res.stdout, "not logged in")
	require.Contains(t, res.stdout, f.user.ID)
	require.Contains(t, res.stdout, "expires")

	res = f.run(t, "--json", "status")
	require.Equal(t, 0, res.code, res.stderr)
	var st sessionStatus
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &st))
	require.True(t, st.Authenticated)
	require.Equal(t, f.user.ID, st.Subject)
	require.NotNil(t, st.ExpiresAt)
	require.True(t, st.ExpiresAt.After(time.Now()))
	require.False(t, st.Expired)

	res = f.run(t, "whoami")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "grace@example.com")
}

func TestCLI_LoginRejectsBadURL(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "login", "http://localhost:5173/auth/callback")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "Error:")
	require.Contains(t, res.stderr, errors.ErrNoFragmentTokens.Error())
	require.Empty(t, f.backend.Requests())
}

func TestCLI_CounterLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	res := f.run(t, "--json", "create", "--title", "Quit sugar", "--start", "2024-01-02", "--description", "no sweets")
	require.Equal(t, 0, res.code, res.stderr)

	var created counters.Counter
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Quit sugar", created.Title)
	require.Equal(t, 2024, created.StartDate.Year())

	res = f.run(t, "list")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Quit sugar")
	require.Contains(t, res.stdout, "public")

	res = f.run(t, "update", created.ID, "--title", "Still no sugar", "--private")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Still no sugar")
	require.Contains(t, res.stdout, "private")

	patches := f.backend.RequestsTo("PATCH", "/counters/"+created.ID)
	require.Len(t, patches, 1)
	require.JSONEq(t, `{"title":"Still no sugar","isPrivate":true}`, string(patches[0].Body))

	res = f.run(t, "archive", created.ID)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "archived")

	res = f.run(t, "list")
	require.Equal(t, 0, res.code)
	require.Contains(t, res.stdout, "No counters")

	res = f.run(t, "list", "--archived")
	require.Equal(t, 0, res.code)
	require.Contains(t, res.stdout, "Still no sugar")

	res = f.run(t, "unarchive", created.ID)
	require.Equal(t, 0, res.code, res.stderr)

	res = f.run(t, "delete", created.ID)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Deleted "+created.ID)

	res = f.run(t, "get", created.ID)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "Error: Counter not found")
}

func TestCLI_BackendMessage(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	res := f.run(t, "create", "--title", "Tagged", "--tag", "does-not-exist")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "Error: Unknown tag does-not-exist")
}

func TestCLI_Logout(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	res := f.run(t, "logout")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Logged out")
	require.Equal(t, 1, f.backend.LogoutCalls())

	res = f.run(t, "whoami")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, loginHint)

	res = f.run(t, "logout")
	require.Equal(t, 0, res.code)
	require.Contains(t, res.stdout, "Not logged in")
	require.Equal(t, 1, f.backend.LogoutCalls())
}

func TestCLI_RefreshesExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.ExpireAccessTokens()

	res := f.run(t, "whoami")
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, 1, f.backend.RefreshCalls())

	// The refreshed token was persisted, so the next run needs no refresh.
	res = f.run(t, "list")
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, 1, f.backend.RefreshCalls())
}

func TestCLI_SessionExpired(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.backend.ExpireAccessTokens()
	f.backend.RevokeRefreshTokens()

	res := f.run(t, "list")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, loginHint)

	res = f.run(t, "status")
	require.Equal(t, 0, res.code)
	require.Contains(t, res.stdout, "not logged in")
}

func TestCLI_Public(t *testing.T) {
	f := setupTestFixture(t)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Alpha", "Bravo"} {
		f.backend.SeedCounter(f.user.ID, counters.Counter{Title: title, StartDate: base.AddDate(0, i, 0)})
	}

	res := f.run(t, "public", "--limit", "1", "--sort-by", "startDate", "--sort-order", "asc")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Alpha")
	require.NotContains(t, res.stdout, "Bravo")
	require.Contains(t, res.stdout, "Page 1 of 2 (2 counters)")

	res = f.run(t, "public", "--sort-order", "sideways")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "Error:")
}

func TestCLI_Tags(t *testing.T) {
	f := setupTestFixture(t)
	tag := f.backend.SeedTag("health")

	res := f.run(t, "tags")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, tag.ID)
	require.Contains(t, res.stdout, "health")
}

func TestCLI_Version(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "version")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "counters dev")
	_, err := os.Stat(f.store)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"rfc3339", "2024-03-01T09:00:00Z", false},
		{"date only", "2024-03-01", false},
		{"padded", "  2024-03-01 ", false},
		{"garbage", "yesterday", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStart(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 2024, got.Year())
			require.Equal(t, time.March, got.Month())
		})
	}
}
