// Package store keeps downloaded artifacts (jars) in a Maven repository
// layout, on the local disk or in an S3-compatible bucket.
//
// Keys are slash-separated paths such as
// "org/slf4j/slf4j-api/2.0.9/slf4j-api-2.0.9.jar"; see [ArtifactKey].
package store

import (
	"context"
	"strings"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
)

// Store is a flat key/blob space for artifacts.
type Store interface {
	// Put writes data under key, replacing any previous content.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the content under key, or an error with code NOT_FOUND.
	Get(ctx context.Context, key string) ([]byte, error)
	// Has reports whether key exists.
	Has(ctx context.Context, key string) (bool, error)
	// List returns every key, sorted.
	List(ctx context.Context) ([]string, error)
}

// ArtifactKey is the repository-layout key of the jar for c.
func ArtifactKey(c maven.Coordinate) string {
	return c.RepoPath() + "/" + c.JarFilename()
}

// cleanKey normalizes key and rejects keys that could escape the store root.
func cleanKey(key string) (string, error) {
	k := strings.Trim(strings.TrimSpace(key), "/")
	if k == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "empty store key")
	}
	for _, seg := range strings.Split(k, "/") {
		if seg == "" || seg == "." || seg == ".." || strings.Contains(seg, `\`) {
			return "", errors.New(errors.ErrCodeInvalidInput, "invalid store key %q", key)
		}
	}
	return k, nil
}

func notFound(key string) error {
	return errors.New(errors.ErrCodeNotFound, "artifact %s not found", key)
}
