package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/rs/zerolog"
)

// refreshOutcome settles one pendingRequest: a new access token or the error
// that ended the refresh.
type refreshOutcome struct {
	accessToken string
	err         error
}

// pendingRequest is a request that hit a 401 while a refresh was in flight.
// done has capacity 1 and receives exactly one outcome.
type pendingRequest struct {
	req  *Request
	done chan refreshOutcome
}

// Coordinator serialises token refreshes for one Client. At most one refresh
// runs at a time; 401s observed meanwhile wait in arrival order and are
// settled once that refresh finishes.
type Coordinator struct {
	mu         sync.Mutex
	refreshing bool
	queue      []*pendingRequest

	refresh  func(ctx context.Context) (string, error)
	logout   func(ctx context.Context)
	dispatch Doer
	logger   zerolog.Logger
}

func newCoordinator(logger zerolog.Logger) *Coordinator {
	return &Coordinator{logger: logger}
}

// Refreshing reports whether a refresh is in flight.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of requests waiting on the current refresh.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// AuthRecovery replays requests that fail with 401 after refreshing the
// access token. Every other outcome passes through untouched.
func (c *Coordinator) AuthRecovery() Middleware {
	return func(next Doer) Doer {
		return func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next(ctx, req)
			if err == nil || errors.StatusCode(err) != http.StatusUnauthorized {
				return resp, err
			}
			return c.recoverUnauthorized(ctx, req, err)
		}
	}
}

func (c *Coordinator) recoverUnauthorized(ctx context.Context, req *Request, original error) (*Response, error) {
	if req.retried {
		c.logger.Info().Str("path", req.Path).Msg("request rejected after refresh, logging out")
		c.logout(ctx)
		return nil, original
	}

	c.mu.Lock()
	if c.refreshing {
		p := &pendingRequest{req: req, done: make(chan refreshOutcome, 1)}
		c.queue = append(c.queue, p)
		c.mu.Unlock()
		c.logger.Debug().Str("path", req.Path).Msg("refresh in flight, request queued")
		return c.await(ctx, p)
	}
	c.refreshing = true
	c.mu.Unlock()

	req.retried = true

	access, refreshErr := c.runRefresh(ctx)
	if refreshErr != nil {
		if errors.Is(refreshErr, errors.ErrNoRefreshToken) {
			c.logout(ctx)
		}
		return nil, original
	}

	setBearer(req, access)
	return c.dispatch(ctx, req)
}

// runRefresh performs the refresh and settles every queued request before
// returning. The flag is cleared on every path, including a panic in the
// refresher.
func (c *Coordinator) runRefresh(ctx context.Context) (access string, err error) {
	defer func() {
		if r := recover(); r != nil {
			settle(c.release(), refreshOutcome{
				err: fmt.Errorf("[Coordinator runRefresh] %w: panic: %v", errors.ErrRefreshFailed, r),
			})
			panic(r)
		}
	}()

	// A cancelled caller must not fail the refresh for everyone queued behind it.
	access, err = c.refresh(context.WithoutCancel(ctx))
	if err != nil {
		c.logger.Warn().Err(err).Msg("token refresh failed")
	} else {
		c.logger.Debug().Msg("token refreshed")
	}

	settle(c.release(), refreshOutcome{accessToken: access, err: err})
	return access, err
}

// release clears the flag and hands back the queue. Requests that fail
// after this point start a new cycle.
func (c *Coordinator) release() []*pendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.queue
	c.queue = nil
	c.refreshing = false
	return queue
}

func settle(queue []*pendingRequest, out refreshOutcome) {
	for _, p := range queue {
		p.done <- out
	}
}

// await blocks until the governing refresh settles, then replays the request
// with the new token.
func (c *Coordinator) await(ctx context.Context, p *pendingRequest) (*Response, error) {
	select {
	case out := <-p.done:
		if out.err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrQueuedRequestRejected, out.err)
		}
		setBearer(p.req, out.accessToken)
		return c.dispatch(ctx, p.req)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
