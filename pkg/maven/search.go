package maven

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/polytunnel/polytunnel/pkg/errors"
)

// versionListRows caps the number of versions requested from the gav core.
const versionListRows = 100

// SearchDoc is one hit from the Maven Central search API.
type SearchDoc struct {
	ID            string `json:"id"`
	GroupID       string `json:"g"`
	ArtifactID    string `json:"a"`
	Version       string `json:"v,omitempty"`
	LatestVersion string `json:"latestVersion,omitempty"`
	VersionCount  int    `json:"versionCount,omitempty"`
}

// Coordinate returns the hit as a coordinate, preferring the latest version.
func (d SearchDoc) Coordinate() Coordinate {
	v := d.LatestVersion
	if v == "" {
		v = d.Version
	}
	return NewCoordinate(d.GroupID, d.ArtifactID, v)
}

// SearchResult is the decoded search response.
type SearchResult struct {
	NumFound int         `json:"numFound"`
	Docs     []SearchDoc `json:"docs"`
}

type searchResponse struct {
	Response SearchResult `json:"response"`
}

// Search runs a free-text query against the search API.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if query == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "search query cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}
	u := fmt.Sprintf("%s?q=%s&rows=%d&wt=json", c.opts.SearchURL, url.QueryEscape(query), limit)
	return c.search(ctx, u)
}

// ListVersions returns every published version of groupId:artifactId,
// newest first.
func (c *Client) ListVersions(ctx context.Context, groupID, artifactID string) ([]string, error) {
	if err := errors.ValidateCoordinatePart("groupId", groupID); err != nil {
		return nil, err
	}
	if err := errors.ValidateCoordinatePart("artifactId", artifactID); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("g:%q AND a:%q", groupID, artifactID)
	u := fmt.Sprintf("%s?q=%s&core=gav&rows=%d&wt=json", c.opts.SearchURL, url.QueryEscape(q), versionListRows)

	res, err := c.search(ctx, u)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(res.Docs))
	for _, d := range res.Docs {
		if d.Version != "" {
			versions = append(versions, d.Version)
		}
	}
	SortVersions(versions)
	return versions, nil
}

// LatestVersion returns the newest published version of groupId:artifactId.
func (c *Client) LatestVersion(ctx context.Context, groupID, artifactID string) (string, error) {
	versions, err := c.ListVersions(ctx, groupID, artifactID)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", errors.New(errors.ErrCodeNotFound, "no versions of %s:%s", groupID, artifactID)
	}
	return versions[0], nil
}

func (c *Client) search(ctx context.Context, u string) (*SearchResult, error) {
	body, err := c.get(ctx, u, "search")
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJSONParse, err, "decode search response")
	}
	return &resp.Response, nil
}
