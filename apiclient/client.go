package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/go-counter-client/internal/config"
	"github.com/jrsteele09/go-counter-client/internal/errors"
	"github.com/jrsteele09/go-counter-client/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const contentTypeJSON = "application/json"

// Client talks to the counters backend. Authenticated calls go through
// RequestID, Logging, Instrument, AuthRecovery and BearerAuth; refresh and
// logout calls skip the last two.
type Client struct {
	cfg        config.APIConfig
	sess       *session.Session
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
	metrics    *Metrics
	coord      *Coordinator

	authed Doer
	plain  Doer

	logoutMu sync.Mutex
}

type options struct {
	logger     zerolog.Logger
	registerer prometheus.Registerer
	tracing    bool
	httpClient *http.Client
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics registers client collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracing wraps the transport with OpenTelemetry client spans.
func WithTracing() Option {
	return func(o *options) { o.tracing = true }
}

// WithHTTPClient replaces the default http.Client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func New(cfg config.APIConfig, sess *session.Session, opts ...Option) (*Client, error) {
	if sess == nil {
		return nil, fmt.Errorf("[Client New] %w: session is required", errors.ErrInvalidArgument)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.GetAPIBaseURL()), "/")
	if base == "" {
		return nil, fmt.Errorf("[Client New] %w: api base url is required", errors.ErrInvalidArgument)
	}

	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}
	if o.tracing {
		traced := *hc
		traced.Transport = otelhttp.NewTransport(transportOrDefault(hc.Transport))
		hc = &traced
	}

	c := &Client{
		cfg:        cfg,
		sess:       sess,
		httpClient: hc,
		baseURL:    base + config.NormalisePrefix(cfg.GetAPIPrefix()),
		logger:     o.logger,
		coord:      newCoordinator(o.logger),
	}
	if o.registerer != nil {
		c.metrics = NewMetrics(o.registerer)
	}

	c.plain = Chain(c.transport, RequestID(), Logging(c.logger), Instrument(c.metrics))
	c.authed = Chain(c.transport,
		RequestID(),
		Logging(c.logger),
		Instrument(c.metrics),
		c.coord.AuthRecovery(),
		BearerAuth(c.sess),
	)

	c.coord.refresh = c.Refresh
	c.coord.logout = c.forcedLogout
	c.coord.dispatch = c.authed

	return c, nil
}

func (c *Client) Session() *session.Session { return c.sess }

func (c *Client) Coordinator() *Coordinator { return c.coord }

// BaseURL is the backend URL including the API prefix.
func (c *Client) BaseURL() string { return c.baseURL }

// Do dispatches req through the authenticated pipeline. The caller's request
// is not modified.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Method == "" || !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("[Client Do] %w: request needs a method and an absolute path", errors.ErrInvalidArgument)
	}
	return c.authed(ctx, req.clone())
}

// DoJSON sends in (if non-nil) as a JSON body and decodes a non-empty
// response body into out (if non-nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("[Client DoJSON] encode %s %s: %w", method, path, err)
		}
	}

	req := NewRequest(method, path, body)
	req.Query = query

	resp, err := c.authed(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("[Client DoJSON] decode %s %s: %w", method, path, err)
	}
	return nil
}

// transport is the innermost Doer: one HTTP round trip with the body fully
// read.
func (c *Client) transport(ctx context.Context, req *Request) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("[Client transport] %s %s: %w", req.Method, req.Path, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("[Client transport] %s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Client transport] read %s %s: %w", req.Method, req.Path, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &errors.HTTPError{
			StatusCode: httpResp.StatusCode,
			Method:     req.Method,
			Path:       req.Path,
			Message:    errorMessage(respBody),
			Body:       respBody,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

func transportOrDefault(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
