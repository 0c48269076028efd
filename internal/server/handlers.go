package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/polytunnel/polytunnel/pkg/buildinfo"
	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/export"
	"github.com/polytunnel/polytunnel/pkg/maven"
	"github.com/polytunnel/polytunnel/pkg/resolver"
)

// ResolutionIDHeader identifies one resolution result. Cached responses
// repeat the ID of the resolution that produced them.
const ResolutionIDHeader = "X-Resolution-ID"

// ResolveRequest is the body of POST /resolve.
type ResolveRequest struct {
	Dependencies []string `json:"dependencies"`
	// Format is one of text, json, yaml, dot, svg. Empty means json.
	Format string `json:"format,omitempty"`
}

// VersionsResponse is the body of GET /versions/{group}/{artifact}.
type VersionsResponse struct {
	GroupID    string   `json:"groupId"`
	ArtifactID string   `json:"artifactId"`
	Latest     string   `json:"latest,omitempty"`
	Versions   []string `json:"versions"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var contentTypes = map[export.Format]string{
	export.FormatText: "text/plain; charset=utf-8",
	export.FormatJSON: "application/json",
	export.FormatYAML: "application/yaml",
	export.FormatDOT:  "text/vnd.graphviz",
	export.FormatSVG:  "image/svg+xml",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Dependencies) == 0 {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "dependencies cannot be empty"))
		return
	}
	if len(req.Dependencies) > maxRoots {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "at most %d dependencies per request", maxRoots))
		return
	}

	format := export.FormatJSON
	if req.Format != "" {
		f, err := export.ParseFormat(req.Format)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		format = f
	}

	roots := make([]maven.Coordinate, 0, len(req.Dependencies))
	keys := make([]string, 0, len(req.Dependencies))
	for _, d := range req.Dependencies {
		c, err := maven.ParseCoordinate(strings.TrimSpace(d))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := c.Validate(); err != nil {
			s.fail(w, r, err)
			return
		}
		roots = append(roots, c)
		keys = append(keys, c.Key())
	}

	ctx := r.Context()
	key := s.opts.Keyer.ResolveKey(keys, s.opts.KeyOpts) + ":" + string(format)
	if data, ok, err := s.opts.Cache.Get(ctx, key); err == nil && ok {
		if id, body, ok := splitCached(data); ok {
			w.Header().Set(ResolutionIDHeader, id)
			w.Header().Set("X-Cache", "hit")
			writeBody(w, contentTypes[format], body)
			return
		}
	}

	tree, err := s.opts.Resolver.Resolve(ctx, roots)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, tree, format); err != nil {
		s.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	if cacheable(tree) {
		if err := s.opts.Cache.Set(ctx, key, joinCached(id, buf.Bytes()), s.opts.ResultTTL); err != nil {
			s.opts.Logger.Warn("cache write failed", "key", key, "err", err)
		}
	}
	s.opts.Logger.Info("resolved",
		"resolution_id", id,
		"roots", len(roots),
		"nodes", tree.Graph.Len(),
		"diagnostics", len(tree.Diagnostics),
		"request_id", requestIDFrom(ctx),
	)

	w.Header().Set(ResolutionIDHeader, id)
	w.Header().Set("X-Cache", "miss")
	writeBody(w, contentTypes[format], buf.Bytes())
}

// cacheable reports whether tree may be served again. Fetch and parent
// failures can be transient, so results carrying them are not cached.
func cacheable(tree *resolver.ResolvedTree) bool {
	for _, d := range tree.Diagnostics {
		if d.Kind == resolver.KindFetch || d.Kind == resolver.KindParent {
			return false
		}
	}
	return true
}

// Cached results are stored as "<resolution id>\n<body>".
func joinCached(id string, body []byte) []byte {
	out := make([]byte, 0, len(id)+1+len(body))
	out = append(out, id...)
	out = append(out, '\n')
	return append(out, body...)
}

func splitCached(data []byte) (string, []byte, bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return "", nil, false
	}
	id := string(data[:i])
	if _, err := uuid.Parse(id); err != nil {
		return "", nil, false
	}
	return id, data[i+1:], true
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, r, errors.New(errors.ErrCodeInvalidInput, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	res, err := s.opts.Index.Search(r.Context(), q, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	g, a := chi.URLParam(r, "group"), chi.URLParam(r, "artifact")
	versions, err := s.opts.Index.ListVersions(r.Context(), g, a)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := VersionsResponse{GroupID: g, ArtifactID: a, Versions: versions}
	if len(versions) > 0 {
		resp.Latest = versions[0]
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCoordinate:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeHTTPStatus:
		if errors.IsNotFound(err) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.ErrCodeNetwork, errors.ErrCodeXMLParse, errors.ErrCodeJSONParse, errors.ErrCodeInvalidUTF8:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if r.Context().Err() != nil {
		status = http.StatusServiceUnavailable
	}
	id := requestIDFrom(r.Context())
	if status >= 500 {
		s.opts.Logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", id)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(errors.GetCode(err)),
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
