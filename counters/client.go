package counters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-counter-client/apiclient"
	"github.com/jrsteele09/go-counter-client/internal/errors"
)

// Client issues domain requests through an authenticated apiclient.Client.
type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.api.DoJSON(ctx, http.MethodGet, apiclient.RouteUsersMe, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Mine lists the signed-in user's counters, either active or archived.
func (c *Client) Mine(ctx context.Context, archived bool) ([]Counter, error) {
	var query url.Values
	if archived {
		query = url.Values{"archived": {"true"}}
	}
	var out []Counter
	if err := c.api.DoJSON(ctx, http.MethodGet, apiclient.RouteCountersMine, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Counter, error) {
	path, err := counterPath(id)
	if err != nil {
		return nil, err
	}
	return c.counter(ctx, http.MethodGet, path, nil)
}

func (c *Client) Create(ctx context.Context, in CreateCounterInput) (*Counter, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("[Counters Create] %w", err)
	}
	return c.counter(ctx, http.MethodPost, apiclient.RouteCounters, in)
}

func (c *Client) Update(ctx context.Context, id string, in UpdateCounterInput) (*Counter, error) {
	path, err := counterPath(id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("[Counters Update] %w", err)
	}
	return c.counter(ctx, http.MethodPatch, path, in)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	path, err := counterPath(id)
	if err != nil {
		return err
	}
	return c.api.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) Archive(ctx context.Context, id string) (*Counter, error) {
	path, err := counterPath(id)
	if err != nil {
		return nil, err
	}
	return c.counter(ctx, http.MethodPatch, path+"/archive", nil)
}

func (c *Client) Unarchive(ctx context.Context, id string) (*Counter, error) {
	path, err := counterPath(id)
	if err != nil {
		return nil, err
	}
	return c.counter(ctx, http.MethodPatch, path+"/unarchive", nil)
}

// ListPublic pages through counters shared by all users. No sign-in needed.
func (c *Client) ListPublic(ctx context.Context, q PublicQuery) (*PublicPage, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("[Counters ListPublic] %w", err)
	}
	var page PublicPage
	if err := c.api.DoJSON(ctx, http.MethodGet, apiclient.RouteCountersPublic, q.Values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.api.DoJSON(ctx, http.MethodGet, apiclient.RouteTags, nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) counter(ctx context.Context, method, path string, in any) (*Counter, error) {
	var out Counter
	if err := c.api.DoJSON(ctx, method, path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func counterPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("[Counters] %w: counter id is required", errors.ErrInvalidArgument)
	}
	return apiclient.RouteCounters + "/" + url.PathEscape(id), nil
}
