package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures the resty transport.
type Options struct {
	BaseURL string
	// Timeout of zero keeps the transport default (no client-side timeout).
	Timeout time.Duration
	Headers map[string]string
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a RestyClient bound to a base URL with JSON as the default content type.
func NewRestyClient(opts Options) *RestyClient {
	c := newRestyBaseClient(opts.Timeout)
	if opts.BaseURL != "" {
		c.SetBaseURL(opts.BaseURL)
	}
	c.SetHeader("Content-Type", "application/json")
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}
	return &RestyClient{client: c}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Do performs the request. Non-2xx statuses are not errors; only transport failures are.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	if in.Method == "" {
		in.Method = http.MethodGet
	}

	req := r.client.R().SetContext(ctx)
	if len(in.Query) > 0 {
		req.SetQueryParams(in.Query)
	}
	if in.File != nil {
		if in.File.Reader == nil {
			return nil, fmt.Errorf("multipart field %q has no content", in.File.Field)
		}
		req.SetFileReader(in.File.Field, in.File.Name, in.File.Reader)
	} else if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(in.Method, in.Path)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
