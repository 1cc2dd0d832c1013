package apitest

import (
	"cmp"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-counter-client/counters"
	"github.com/jrsteele09/go-counter-client/internal/utils"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func (b *Backend) handleMine(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "true"
	owner := userID(r)

	b.mu.Lock()
	out := []counters.Counter{}
	for _, c := range b.counters {
		if c.UserID == owner && c.IsArchived == archived {
			out = append(out, *c)
		}
	}
	b.mu.Unlock()

	slices.SortFunc(out, func(x, y counters.Counter) int { return y.CreatedAt.Compare(x.CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleGet(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	c, ok := b.counters[r.PathValue("id")]
	if ok && c.IsPrivate && c.UserID != userID(r) {
		ok = false
	}
	var out counters.Counter
	if ok {
		out = *c
	}
	b.mu.Unlock()

	if !ok {
		writeJSONError(w, http.StatusNotFound, "Counter not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in counters.CreateCounterInput
	if err := readJSON(r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Malformed JSON")
		return
	}

	var problems []string
	if strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title should not be empty")
	}
	if in.StartDate.IsZero() {
		problems = append(problems, "startDate must be a valid ISO 8601 date string")
	}
	if len(problems) > 0 {
		writeJSONError(w, http.StatusBadRequest, problems)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tags, missing := b.lookupTags(in.TagIDs)
	if missing != "" {
		writeJSONError(w, http.StatusBadRequest, "Unknown tag "+missing)
		return
	}

	now := time.Now().UTC()
	c := &counters.Counter{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		IsPrivate:   in.IsPrivate,
		Tags:        tags,
		UserID:      userID(r),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.counters[c.ID] = c
	writeJSON(w, http.StatusCreated, c)
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in counters.UpdateCounterInput
	if err := readJSON(r, &in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Malformed JSON")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, status := b.ownedCounter(r)
	if status != 0 {
		writeJSONError(w, status, http.StatusText(status))
		return
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			writeJSONError(w, http.StatusBadRequest, []string{"title should not be empty"})
			return
		}
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.StartDate != nil {
		c.StartDate = *in.StartDate
	}
	if in.IsPrivate != nil {
		c.IsPrivate = *in.IsPrivate
	}
	if in.TagIDs != nil {
		tags, missing := b.lookupTags(utils.Value(in.TagIDs))
		if missing != "" {
			writeJSONError(w, http.StatusBadRequest, "Unknown tag "+missing)
			return
		}
		c.Tags = tags
	}
	c.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, status := b.ownedCounter(r)
	if status != 0 {
		writeJSONError(w, status, http.StatusText(status))
		return
	}
	delete(b.counters, c.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleArchive(archive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		c, status := b.ownedCounter(r)
		if status != 0 {
			writeJSONError(w, status, http.StatusText(status))
			return
		}
		now := time.Now().UTC()
		c.IsArchived = archive
		c.ArchivedAt = nil
		if archive {
			c.ArchivedAt = &now
		}
		c.UpdatedAt = now
		writeJSON(w, http.StatusOK, c)
	}
}

func (b *Backend) handlePublic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := positiveInt(q.Get("page"), 1)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, []string{"page must be a positive integer"})
		return
	}
	limit, err := positiveInt(q.Get("limit"), defaultPageLimit)
	if err != nil || limit > maxPageLimit {
		writeJSONError(w, http.StatusBadRequest, []string{"limit must be between 1 and 100"})
		return
	}
	order := q.Get("sortOrder")
	if order == "" {
		order = counters.SortDesc
	}
	if order != counters.SortAsc && order != counters.SortDesc {
		writeJSONError(w, http.StatusBadRequest, []string{"sortOrder must be one of the following values: asc, desc"})
		return
	}
	search := strings.ToLower(q.Get("search"))
	var wantTags []string
	if raw := q.Get("tags"); raw != "" {
		wantTags = strings.Split(raw, ",")
	}

	b.mu.Lock()
	matched := []counters.Counter{}
	for _, c := range b.counters {
		if c.IsPrivate || c.IsArchived {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Title+" "+c.Description), search) {
			continue
		}
		if len(wantTags) > 0 && !hasAnyTag(c.Tags, wantTags) {
			continue
		}
		out := *c
		if u, ok := b.users[c.UserID]; ok {
			out.User = &u
		}
		matched = append(matched, out)
	}
	b.mu.Unlock()

	sortCounters(matched, q.Get("sortBy"), order)

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, counters.PublicPage{
		Data: matched[start:end],
		Meta: counters.PageMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (b *Backend) handleTags(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	out := slices.Clone(b.tags)
	b.mu.Unlock()
	if out == nil {
		out = []counters.Tag{}
	}
	writeJSON(w, http.StatusOK, out)
}

// ownedCounter returns the counter named in the path if the caller owns it,
// else a 404 or 403 status. Callers hold b.mu.
func (b *Backend) ownedCounter(r *http.Request) (*counters.Counter, int) {
	c, ok := b.counters[r.PathValue("id")]
	if !ok {
		return nil, http.StatusNotFound
	}
	if c.UserID != userID(r) {
		return nil, http.StatusForbidden
	}
	return c, 0
}

// lookupTags resolves ids, returning the first unknown id. Callers hold b.mu.
func (b *Backend) lookupTags(ids []string) ([]counters.Tag, string) {
	tags := []counters.Tag{}
	for _, id := range ids {
		i := slices.IndexFunc(b.tags, func(t counters.Tag) bool { return t.ID == id })
		if i < 0 {
			return nil, id
		}
		tags = append(tags, b.tags[i])
	}
	return tags, ""
}

// hasAnyTag matches by tag name or id.
func hasAnyTag(tags []counters.Tag, want []string) bool {
	for _, t := range tags {
		for _, w := range want {
			if strings.EqualFold(t.Name, w) || t.ID == w {
				return true
			}
		}
	}
	return false
}

func sortCounters(list []counters.Counter, sortBy, order string) {
	slices.SortStableFunc(list, func(a, b counters.Counter) int {
		var c int
		switch sortBy {
		case "title":
			c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case "startDate":
			c = a.StartDate.Compare(b.StartDate)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if order == counters.SortDesc {
			return -c
		}
		return c
	})
}

func positiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
