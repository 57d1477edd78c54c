package httpclient

import (
	"context"
	"io"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// FilePart is a single file sent as a multipart/form-data field.
type FilePart struct {
	Field  string
	Name   string
	Reader io.Reader
}

// Request describes one call relative to the client's base URL.
// Body is JSON encoded when set; File switches the request to multipart.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   any
	File   *FilePart
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
