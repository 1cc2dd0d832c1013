package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/jrsteele09/go-counter-client/session"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const HeaderRequestID = "X-Request-Id"

// Doer performs one backend call. Non-2xx responses are returned as
// *errors.HTTPError.
type Doer func(ctx context.Context, req *Request) (*Response, error)

type Middleware func(Doer) Doer

// Chain wraps base so that the first middleware listed runs outermost.
func Chain(base Doer, mw ...Middleware) Doer {
	chained := base
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

// RequestID tags each request with an X-Request-Id unless the caller set one.
func RequestID() Middleware {
	return func(next Doer) Doer {
		return func(ctx context.Context, req *Request) (*Response, error) {
			if req.Header == nil {
				req.Header = make(http.Header)
			}
			if req.Header.Get(HeaderRequestID) == "" {
				req.Header.Set(HeaderRequestID, uuid.NewString())
			}
			return next(ctx, req)
		}
	}
}

// Logging writes one debug line per dispatch. Header values are never logged.
func Logging(logger zerolog.Logger) Middleware {
	return func(next Doer) Doer {
		return func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			ev := logger.Debug()
			if err != nil && errors.StatusCode(err) == 0 {
				ev = logger.Warn().Err(err)
			}
			ev.Str("method", req.Method).
				Str("path", req.Path).
				Int("status", statusOf(resp, err)).
				Dur("duration", time.Since(start)).
				Str("request_id", req.Header.Get(HeaderRequestID)).
				Bool("retried", req.retried).
				Msg("api request")
			return resp, err
		}
	}
}

// Instrument records request counts and latency. A nil Metrics is a no-op.
func Instrument(m *Metrics) Middleware {
	return func(next Doer) Doer {
		if m == nil {
			return next
		}
		return func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.observeRequest(req.Method, statusOf(resp, err), time.Since(start))
			return resp, err
		}
	}
}

// BearerAuth attaches the session's access token unless the request already
// carries an Authorization header. Without a token the request goes out
// unauthenticated.
func BearerAuth(sess *session.Session) Middleware {
	return func(next Doer) Doer {
		return func(ctx context.Context, req *Request) (*Response, error) {
			if req.Header.Get("Authorization") == "" {
				if access := sess.AccessToken(); access != "" {
					setBearer(req, access)
				}
			}
			return next(ctx, req)
		}
	}
}

func setBearer(req *Request, access string) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	tok.SetAuthHeader(&http.Request{Header: req.Header})
}

// statusOf returns 0 for transport failures.
func statusOf(resp *Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	return errors.StatusCode(err)
}
