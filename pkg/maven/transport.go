package maven

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/polytunnel/polytunnel/pkg/buildinfo"
	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/observability"
)

// httpTimeout bounds a single repository request.
const httpTimeout = 10 * time.Second

// Response is a fully read repository response.
type Response struct {
	Status int
	Body   []byte
}

// Transport fetches raw bytes by URL. A non-2xx status is not an error at
// this layer; callers decide what a status means.
type Transport interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string) (*Response, error)

// Get calls f.
func (f TransportFunc) Get(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}

// NewHTTPClient returns the http.Client used by HTTPTransport.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// HTTPTransport is the network Transport. It reports every request to the
// registered observability HTTP hooks.
type HTTPTransport struct {
	http    *http.Client
	headers map[string]string
}

// NewHTTPTransport creates an HTTPTransport. Headers are sent with every
// request; pass nil for none.
func NewHTTPTransport(client *http.Client, headers map[string]string) *HTTPTransport {
	if client == nil {
		client = NewHTTPClient()
	}
	return &HTTPTransport{http: client, headers: headers}
}

// Get performs a GET request and reads the whole body.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := t.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", redact(req.URL))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read body of %s", redact(req.URL))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// redact strips credentials from repository URLs before they reach logs.
func redact(u *url.URL) string {
	return u.Redacted()
}

var _ Transport = (*HTTPTransport)(nil)
