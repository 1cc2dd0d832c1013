package counters_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-counter-client/apiclient"
	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/jrsteele09/go-counter-client/internal/apitest"
	cerrors "github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/jrsteele09/go-counter-client/internal/utils"
	"github.com/jrsteele09/go-counter-client/session"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	backend *apitest.Backend
	user    counters.User
	client  *counters.Client
	ctx     context.Context
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := apitest.New(t)
	user := backend.SeedUser("grace@example.com", "Grace Hopper")

	sess := session.New(session.NewMemoryStorage())
	require.NoError(t, sess.Login(backend.Login(t, user.ID)))

	api, err := apiclient.New(backend.Config(), sess)
	require.NoError(t, err)

	return &testFixture{
		backend: backend,
		user:    user,
		client:  counters.New(api),
		ctx:     context.Background(),
	}
}

func TestClient_Me(t *testing.T) {
	f := setupTestFixture(t)
	u, err := f.client.Me(f.ctx)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, u.ID)
	require.Equal(t, "Grace Hopper", u.Name)
}

func TestClient_CounterLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	work := f.backend.SeedTag("work")
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	created, err := f.client.Create(f.ctx, counters.CreateCounterInput{
		Title:     "Days since last incident",
		StartDate: start,
		TagIDs:    []string{work.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, f.user.ID, created.UserID)
	require.True(t, created.StartDate.Equal(start))
	require.Equal(t, []counters.Tag{work}, created.Tags)

	t.Run("get", func(t *testing.T) {
		got, err := f.client.Get(f.ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.Title, got.Title)
	})

	t.Run("partial update", func(t *testing.T) {
		updated, err := f.client.Update(f.ctx, created.ID, counters.UpdateCounterInput{
			Description: utils.Ptr("production only"),
			IsPrivate:   utils.Ptr(true),
		})
		require.NoError(t, err)
		require.Equal(t, created.Title, updated.Title)
		require.Equal(t, "production only", updated.Description)
		require.True(t, updated.IsPrivate)

		reqs := f.backend.RequestsTo(http.MethodPatch, "/counters/"+created.ID)
		require.Len(t, reqs, 1)
		require.JSONEq(t, `{"description":"production only","isPrivate":true}`, string(reqs[0].Body))
	})

	t.Run("archive and unarchive", func(t *testing.T) {
		archived, err := f.client.Archive(f.ctx, created.ID)
		require.NoError(t, err)
		require.True(t, archived.IsArchived)
		require.NotNil(t, archived.ArchivedAt)

		active, err := f.client.Mine(f.ctx, false)
		require.NoError(t, err)
		require.Empty(t, active)

		inArchive, err := f.client.Mine(f.ctx, true)
		require.NoError(t, err)
		require.Len(t, inArchive, 1)

		restored, err := f.client.Unarchive(f.ctx, created.ID)
		require.NoError(t, err)
		require.False(t, restored.IsArchived)
		require.Nil(t, restored.ArchivedAt)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, f.client.Delete(f.ctx, created.ID))

		_, err := f.client.Get(f.ctx, created.ID)
		require.ErrorIs(t, err, cerrors.ErrNotFound)
	})
}

func TestClient_NotOwner(t *testing.T) {
	f := setupTestFixture(t)
	other := f.backend.SeedUser("other@example.com", "Other")
	theirs := f.backend.SeedCounter(other.ID, counters.Counter{Title: "Theirs"})

	_, err := f.client.Archive(f.ctx, theirs.ID)
	require.ErrorIs(t, err, cerrors.ErrForbidden)
	require.Equal(t, 0, f.backend.RefreshCalls())
}

func TestClient_Validation(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"get without id", func() error { _, err := f.client.Get(f.ctx, " "); return err }},
		{"update without id", func() error {
			_, err := f.client.Update(f.ctx, "", counters.UpdateCounterInput{Title: utils.Ptr("x")})
			return err
		}},
		{"empty update", func() error { _, err := f.client.Update(f.ctx, "abc", counters.UpdateCounterInput{}); return err }},
		{"blank title update", func() error {
			_, err := f.client.Update(f.ctx, "abc", counters.UpdateCounterInput{Title: utils.Ptr("  ")})
			return err
		}},
		{"delete without id", func() error { return f.client.Delete(f.ctx, "") }},
		{"archive without id", func() error { _, err := f.client.Archive(f.ctx, ""); return err }},
		{"unarchive without id", func() error { _, err := f.client.Unarchive(f.ctx, ""); return err }},
		{"create without title", func() error {
			_, err := f.client.Create(f.ctx, counters.CreateCounterInput{StartDate: time.Now()})
			return err
		}},
		{"create without start", func() error {
			_, err := f.client.Create(f.ctx, counters.CreateCounterInput{Title: "x"})
			return err
		}},
		{"bad sort order", func() error {
			_, err := f.client.ListPublic(f.ctx, counters.PublicQuery{SortOrder: "sideways"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), cerrors.ErrInvalidArgument)
		})
	}
	require.Empty(t, f.backend.Requests())
}

func TestClient_ListPublic(t *testing.T) {
	f := setupTestFixture(t)
	other := f.backend.SeedUser("other@example.com", "Other")
	music := f.backend.SeedTag("music")
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"Alpha", "Bravo", "Charlie", "Delta"} {
		c := counters.Counter{Title: title, StartDate: base.AddDate(0, i, 0)}
		if title == "Charlie" {
			c.Tags = []counters.Tag{music}
		}
		f.backend.SeedCounter(other.ID, c)
	}
	f.backend.SeedCounter(other.ID, counters.Counter{Title: "Hidden", IsPrivate: true})
	f.backend.SeedCounter(other.ID, counters.Counter{Title: "Old", IsArchived: true})

	t.Run("paged and sorted", func(t *testing.T) {
		page, err := f.client.ListPublic(f.ctx, counters.PublicQuery{Page: 2, Limit: 3, SortBy: "startDate", SortOrder: "ASC"})
		require.NoError(t, err)
		require.Equal(t, counters.PageMeta{Total: 4, Page: 2, Limit: 3, TotalPages: 2}, page.Meta)
		require.Len(t, page.Data, 1)
		require.Equal(t, "Delta", page.Data[0].Title)
		require.NotNil(t, page.Data[0].User)
	})

	t.Run("search and tags", func(t *testing.T) {
		page, err := f.client.ListPublic(f.ctx, counters.PublicQuery{Tags: []string{"music", " "}})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		require.Equal(t, "Charlie", page.Data[0].Title)

		page, err = f.client.ListPublic(f.ctx, counters.PublicQuery{Search: "bra"})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		require.Equal(t, "Bravo", page.Data[0].Title)
	})

	t.Run("works signed out", func(t *testing.T) {
		sess := session.New(session.NewMemoryStorage())
		api, err := apiclient.New(f.backend.Config(), sess)
		require.NoError(t, err)

		page, err := counters.New(api).ListPublic(f.ctx, counters.PublicQuery{})
		require.NoError(t, err)
		require.Equal(t, 4, page.Meta.Total)
	})
}

func TestClient_Tags(t *testing.T) {
	f := setupTestFixture(t)

	tags, err := f.client.Tags(f.ctx)
	require.NoError(t, err)
	require.Empty(t, tags)

	f.backend.SeedTag("health")
	tags, err = f.client.Tags(f.ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "health", tags[0].Name)
}

func TestClient_RecoversExpiredToken(t *testing.T) {
	f := setupTestFixture(t)
	f.backend.ExpireAccessTokens()

	mine, err := f.client.Mine(f.ctx, false)
	require.NoError(t, err)
	require.Empty(t, mine)
	require.Equal(t, 1, f.backend.RefreshCalls())
}
