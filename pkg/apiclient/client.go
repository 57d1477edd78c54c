// Package apiclient is the resource client for the CRM REST backend.
//
// Every operation issues exactly one request and returns a Result. Transport
// errors, non-2xx statuses and undecodable bodies are logged and converted to
// a failure envelope; no operation returns an error or panics. There are no
// retries, so repeating a create after a network failure may duplicate it.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gestionale-natale/crm-client/internal/logger"
	"github.com/gestionale-natale/crm-client/pkg/httpclient"
)

// Client issues calls against a single base URL. It holds no mutable state and
// is safe for concurrent use.
type Client struct {
	http  httpclient.Client
	saver FileSaver
	log   logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger failures are written to.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = logger.Ensure(log) }
}

// WithFileSaver sets where exported files are written.
func WithFileSaver(saver FileSaver) Option {
	return func(c *Client) {
		if saver != nil {
			c.saver = saver
		}
	}
}

// New wraps an existing transport.
func New(transport httpclient.Client, opts ...Option) *Client {
	c := &Client{
		http:  transport,
		saver: DirSaver{Dir: "."},
		log:   logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewHTTP builds a Client on the resty transport.
func NewHTTP(httpOpts httpclient.Options, opts ...Option) *Client {
	return New(httpclient.NewRestyClient(httpOpts), opts...)
}

// call is one request plus the envelope key its failures use.
type call struct {
	op  string
	req httpclient.Request
	key failureKey
}

// exchange performs the call and returns the decoded backend envelope unchanged.
func (c *Client) exchange(ctx context.Context, cl call) Result {
	resp, failed := c.send(ctx, cl)
	if failed != nil {
		return *failed
	}

	var res Result
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return c.fail(cl, resp, fmt.Sprintf("decode response: %v", err))
	}
	if !res.Success && res.Failure() == "" {
		// Passed through as received; logged so the silent failure leaves a trace.
		c.logFailure(cl, resp, "response carries no success flag or failure text")
	}
	return res
}

// send performs the call; a non-nil Result means it failed.
func (c *Client) send(ctx context.Context, cl call) (httpclient.Response, *Result) {
	if cl.req.Method == "" {
		cl.req.Method = http.MethodGet
	}
	if c == nil || c.http == nil {
		res := cl.key.envelope("resource client is not initialized")
		return nil, &res
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.http.Do(ctx, cl.req)
	if err != nil {
		res := c.fail(cl, nil, err.Error())
		return nil, &res
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		msg := serverFailure(resp.Body(), cl.key)
		if msg == "" {
			msg = statusFailure(status)
		}
		res := c.fail(cl, resp, msg)
		return nil, &res
	}
	return resp, nil
}

// fail logs the failure and builds the envelope for it.
func (c *Client) fail(cl call, resp httpclient.Response, msg string) Result {
	c.logFailure(cl, resp, msg)
	return cl.key.envelope(msg)
}

func (c *Client) logFailure(cl call, resp httpclient.Response, msg string) {
	fields := map[string]any{
		"operation": cl.op,
		"method":    cl.req.Method,
		"path":      cl.req.Path,
		"error":     msg,
	}
	if resp != nil {
		fields["status"] = resp.StatusCode()
		fields["body"] = bodySummary(resp)
	}
	var log logger.Logger = logger.NopLogger{}
	if c != nil && c.log != nil {
		log = c.log
	}
	log.ErrorObj("api request failed", "api_error", fields)
}
