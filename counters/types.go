package counters

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-counter-client/internal/errors"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Counter tracks the time elapsed since StartDate.
type Counter struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"startDate"`
	IsPrivate   bool       `json:"isPrivate"`
	IsArchived  bool       `json:"isArchived"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`
	Tags        []Tag      `json:"tags"`
	UserID      string     `json:"userId"`
	User        *User      `json:"user,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateCounterInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate"`
	IsPrivate   bool      `json:"isPrivate"`
	TagIDs      []string  `json:"tagIds,omitempty"`
}

func (in CreateCounterInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", errors.ErrInvalidArgument)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", errors.ErrInvalidArgument)
	}
	return nil
}

// UpdateCounterInput is a partial update; nil fields are left unchanged.
type UpdateCounterInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	IsPrivate   *bool      `json:"isPrivate,omitempty"`
	TagIDs      *[]string  `json:"tagIds,omitempty"`
}

func (in UpdateCounterInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.StartDate == nil && in.IsPrivate == nil && in.TagIDs == nil
}

func (in UpdateCounterInput) Validate() error {
	if in.Empty() {
		return fmt.Errorf("%w: nothing to update", errors.ErrInvalidArgument)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return fmt.Errorf("%w: title cannot be blank", errors.ErrInvalidArgument)
	}
	if in.StartDate != nil && in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date cannot be zero", errors.ErrInvalidArgument)
	}
	return nil
}

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// PublicQuery filters and pages the public listing. Zero values are omitted
// from the query string and the backend defaults apply.
type PublicQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Search    string
	Tags      []string
}

func (q PublicQuery) Validate() error {
	if q.Page < 0 || q.Limit < 0 {
		return fmt.Errorf("%w: page and limit must not be negative", errors.ErrInvalidArgument)
	}
	switch strings.ToLower(q.SortOrder) {
	case "", SortAsc, SortDesc:
		return nil
	}
	return fmt.Errorf("%w: sort order must be %q or %q", errors.ErrInvalidArgument, SortAsc, SortDesc)
}

func (q PublicQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", strings.ToLower(q.SortOrder))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}

	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		v.Set("tags", strings.Join(tags, ","))
	}
	return v
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type PublicPage struct {
	Data []Counter `json:"data"`
	Meta PageMeta  `json:"meta"`
}
