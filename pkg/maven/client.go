package maven

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/polytunnel/polytunnel/pkg/cache"
	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/observability"
)

const (
	// CentralURL is the Maven Central repository.
	CentralURL = "https://repo1.maven.org/maven2"

	// CentralSearchURL is the Maven Central Solr search endpoint.
	CentralSearchURL = "https://search.maven.org/solrsearch/select"

	// DefaultCacheTTL is how long POM and search responses are reused.
	// Released POMs never change; search results go stale slowly.
	DefaultCacheTTL = 24 * time.Hour
)

// Options configures a Client.
type Options struct {
	// Repositories are base URLs tried in order. A 404 falls through to the
	// next repository; any other failure is returned immediately.
	Repositories []string

	// SearchURL is the Solr search endpoint.
	SearchURL string

	Transport Transport
	Cache     cache.Cache
	Keyer     cache.Keyer
	CacheTTL  time.Duration

	// Refresh bypasses cache reads. Responses are still written back.
	Refresh bool

	Logger *log.Logger
}

// WithDefaults fills every zero field.
func (o Options) WithDefaults() Options {
	if len(o.Repositories) == 0 {
		o.Repositories = []string{CentralURL}
	}
	if o.SearchURL == "" {
		o.SearchURL = CentralSearchURL
	}
	if o.Transport == nil {
		o.Transport = NewHTTPTransport(nil, nil)
	}
	if o.Cache == nil {
		if mc, err := cache.NewMemoryCache(0); err == nil {
			o.Cache = mc
		} else {
			o.Cache = cache.NewNullCache()
		}
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Client fetches POMs and artifacts from Maven repositories.
// All methods are safe for concurrent use.
type Client struct {
	opts  Options
	repos []string
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	opts = opts.WithDefaults()
	repos := make([]string, len(opts.Repositories))
	for i, r := range opts.Repositories {
		repos[i] = strings.TrimRight(r, "/")
	}
	return &Client{opts: opts, repos: repos}
}

// Repositories returns the normalized repository base URLs.
func (c *Client) Repositories() []string {
	return append([]string(nil), c.repos...)
}

// POMURL is the POM location in the first repository.
func (c *Client) POMURL(coord Coordinate) string {
	return c.repos[0] + "/" + coord.RepoPath() + "/" + coord.POMFilename()
}

// JarURL is the jar location in the first repository.
func (c *Client) JarURL(coord Coordinate) string {
	return c.repos[0] + "/" + coord.RepoPath() + "/" + coord.JarFilename()
}

// FetchPOMContent returns the raw POM text. The body must be valid UTF-8.
func (c *Client) FetchPOMContent(ctx context.Context, coord Coordinate) (string, error) {
	if err := coord.Validate(); err != nil {
		return "", err
	}
	body, err := c.fetch(ctx, coord.RepoPath()+"/"+coord.POMFilename(), "pom")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(body) {
		return "", errors.New(errors.ErrCodeInvalidUTF8, "pom for %s is not valid UTF-8", coord)
	}
	return string(body), nil
}

// FetchPOM fetches and parses the POM of coord. It does not walk the parent chain.
func (c *Client) FetchPOM(ctx context.Context, coord Coordinate) (*POM, error) {
	content, err := c.FetchPOMContent(ctx, coord)
	if err != nil {
		return nil, err
	}
	pom, err := ParsePOM([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("pom for %s: %w", coord, err)
	}
	c.opts.Logger.Debug("fetched pom", "coordinate", coord.String(), "dependencies", len(pom.Dependencies))
	return pom, nil
}

// FetchJar returns the jar bytes of coord. Jars are not cached.
func (c *Client) FetchJar(ctx context.Context, coord Coordinate) ([]byte, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}
	return c.fetch(ctx, coord.RepoPath()+"/"+coord.JarFilename(), "")
}

// DownloadJar writes the jar of coord to dest, creating parent directories.
func (c *Client) DownloadJar(ctx context.Context, coord Coordinate, dest string) error {
	data, err := c.FetchJar(ctx, coord)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", filepath.Dir(dest))
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", dest)
	}
	return nil
}

// fetch tries each repository in order. An empty namespace disables caching.
func (c *Client) fetch(ctx context.Context, relPath, namespace string) ([]byte, error) {
	var lastErr error
	for _, repo := range c.repos {
		body, err := c.get(ctx, repo+"/"+relPath, namespace)
		if err == nil {
			return body, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// get performs one cached GET. Non-2xx responses become *errors.StatusError
// and are never cached.
func (c *Client) get(ctx context.Context, url, namespace string) ([]byte, error) {
	key := c.opts.Keyer.HTTPKey(namespace, url)
	hooks := observability.Cache()

	if namespace != "" && !c.opts.Refresh {
		data, ok, err := c.opts.Cache.Get(ctx, key)
		if err != nil {
			c.opts.Logger.Warn("cache read failed", "key", key, "err", err)
		}
		if ok {
			hooks.OnCacheHit(ctx, namespace)
			return data, nil
		}
		hooks.OnCacheMiss(ctx, namespace)
	}

	resp, err := c.opts.Transport.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, &errors.StatusError{Status: resp.Status, URL: url}
	}

	if namespace != "" {
		if err := c.opts.Cache.Set(ctx, key, resp.Body, c.opts.CacheTTL); err != nil {
			c.opts.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			hooks.OnCacheSet(ctx, namespace, len(resp.Body))
		}
	}
	return resp.Body, nil
}
