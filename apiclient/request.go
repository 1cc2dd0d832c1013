package apiclient

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
)

// Request is a backend call relative to the API prefix. The body is kept as
// bytes so the request can be dispatched more than once.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// retried is set once the request has been replayed after a refresh.
	retried bool
}

func NewRequest(method, path string, body []byte) *Request {
	return &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
		Body:   body,
	}
}

func (r *Request) Retried() bool { return r.retried }

func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if r.Query != nil {
		c.Query = maps.Clone(r.Query)
	}
	c.Body = slices.Clone(r.Body)
	return &c
}

// Response is a successful (2xx) backend response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
