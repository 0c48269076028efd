// Package cache stores raw repository responses (POM text, search JSON) so
// repeated resolutions do not hit the network.
//
// Backends:
//   - [NullCache]: never stores anything (--no-cache)
//   - [MemoryCache]: bounded in-process LRU, the default for the library
//   - [FileCache]: hashed files under a directory, the CLI default
//   - [RedisCache]: shared cache for a fleet of CI runners
//   - [MongoCache]: shared cache backed by a TTL-indexed collection
//
// Only raw bytes are cached. Parsed POMs are mutated by inheritance merges
// and must be rebuilt per resolution.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any connections held by the backend.
	Close() error
}

// Keyer builds cache keys. Keys from different namespaces never collide.
type Keyer interface {
	// HTTPKey is the key for a raw repository response.
	HTTPKey(namespace, url string) string

	// ResolveKey is the key for a serialized resolution result.
	ResolveKey(roots []string, opts ResolveKeyOpts) string
}

// ResolveKeyOpts are the resolver options that change a resolution result.
type ResolveKeyOpts struct {
	Repositories   []string `json:"repositories"`
	MaxDepth       int      `json:"max_depth"`
	MaxParentDepth int      `json:"max_parent_depth"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<url>".
func (DefaultKeyer) HTTPKey(namespace, url string) string {
	return "http:" + namespace + ":" + url
}

// ResolveKey hashes the roots together with the options.
func (DefaultKeyer) ResolveKey(roots []string, opts ResolveKeyOpts) string {
	return hashKey("resolve", roots, opts)
}

// PrefixKeyer namespaces every key of an inner Keyer, so a server and the
// CLI can share one Redis or MongoDB backend.
type PrefixKeyer struct {
	Inner  Keyer
	Prefix string
}

// NewPrefixKeyer wraps inner (the DefaultKeyer when nil) with prefix.
func NewPrefixKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return PrefixKeyer{Inner: inner, Prefix: prefix}
}

func (k PrefixKeyer) HTTPKey(namespace, url string) string {
	return k.Prefix + k.Inner.HTTPKey(namespace, url)
}

func (k PrefixKeyer) ResolveKey(roots []string, opts ResolveKeyOpts) string {
	return k.Prefix + k.Inner.ResolveKey(roots, opts)
}

// hashKey is "<prefix>:<sha256 of the JSON encoding of parts>".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash is the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
