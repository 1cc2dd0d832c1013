package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type contextKey string

const contextKeyUserID contextKey = "user_id"

func chainMiddleware(route http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chained := route
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// recordMiddleware captures every request, including ones later rejected.
func (b *Backend) recordMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		bearer, _ := bearerToken(r)
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:    r.Method,
			Path:      strings.TrimPrefix(r.URL.Path, b.prefix),
			Query:     r.URL.Query(),
			Bearer:    bearer,
			RequestID: r.Header.Get("X-Request-Id"),
			Body:      body,
		})
		b.mu.Unlock()
		next(w, r)
	}
}

// overrideMiddleware answers with a forced status when one is set for the route.
func (b *Backend) overrideMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, b.prefix)
		b.mu.Lock()
		status, ok := b.routeStatus[key]
		b.mu.Unlock()
		if ok {
			writeJSONError(w, status, http.StatusText(status))
			return
		}
		next(w, r)
	}
}

// requireAuth validates the bearer access token and puts the user id on the
// request context.
func (b *Backend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		b.mu.Lock()
		claims, err := b.tokens.verify(raw)
		b.mu.Unlock()
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(contextKeyUserID).(string)
	return id
}

// writeJSONError writes the backend's error shape. message is a string or a
// []string for validation failures.
func writeJSONError(w http.ResponseWriter, status int, message any) {
	writeJSON(w, status, map[string]any{
		"message":    message,
		"error":      http.StatusText(status),
		"statusCode": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
