package maven_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/polytunnel/polytunnel/pkg/cache"
	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
	"github.com/polytunnel/polytunnel/pkg/maven/maventest"
)

var slf4j = maven.NewCoordinate("org.slf4j", "slf4j-api", "2.0.9")

func TestFetchPOM(t *testing.T) {
	repo := maventest.New()
	repo.AddPOM(slf4j, maventest.POM("org.slf4j:slf4j-api:2.0.9"))

	pom, err := repo.Client().FetchPOM(context.Background(), slf4j)
	if err != nil {
		t.Fatalf("FetchPOM error: %v", err)
	}
	if pom.Coordinate.String() != slf4j.String() {
		t.Errorf("Coordinate = %s", pom.Coordinate)
	}
}

func TestFetchPOMErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *maventest.Repository)
		code  errors.Code
	}{
		{"missing", func(r *maventest.Repository) {}, errors.ErrCodeHTTPStatus},
		{"server error", func(r *maventest.Repository) {
			r.SetStatus(maventest.POMURL(slf4j), http.StatusBadGateway)
		}, errors.ErrCodeHTTPStatus},
		{"invalid utf8", func(r *maventest.Repository) {
			r.Add(maventest.POMURL(slf4j), []byte{0x3c, 0xff, 0xfe, 0x3e})
		}, errors.ErrCodeInvalidUTF8},
		{"html error page", func(r *maventest.Repository) {
			r.AddPOM(slf4j, "<!DOCTYPE html><html><body>Oops</body></html>")
		}, errors.ErrCodeXMLParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := maventest.New()
			tt.setup(repo)
			_, err := repo.Client().FetchPOM(context.Background(), slf4j)
			if err == nil {
				t.Fatal("FetchPOM should fail")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFetchPOMStatusError(t *testing.T) {
	repo := maventest.New()
	_, err := repo.Client().FetchPOM(context.Background(), slf4j)

	if !errors.IsNotFound(err) {
		t.Fatalf("error = %v, want 404", err)
	}
	var se *errors.StatusError
	if !stderrors.As(err, &se) || se.URL != maventest.POMURL(slf4j) {
		t.Errorf("StatusError URL = %v, want %s", se, maventest.POMURL(slf4j))
	}
}

func TestFetchPOMRejectsUnsafeCoordinate(t *testing.T) {
	repo := maventest.New()
	_, err := repo.Client().FetchPOM(context.Background(), maven.NewCoordinate("org", "../../secret", "1"))
	if !errors.Is(err, errors.ErrCodeInvalidCoordinate) {
		t.Errorf("error = %v, want INVALID_COORDINATE", err)
	}
	if repo.TotalFetches() != 0 {
		t.Error("unsafe coordinate must not reach the transport")
	}
}

const mirror = "https://mirror.test/m2"

func mirrorURL(c maven.Coordinate) string {
	return mirror + "/" + c.RepoPath() + "/" + c.POMFilename()
}

func TestRepositoryFallthrough(t *testing.T) {
	repo := maventest.New()
	repo.Add(mirrorURL(slf4j), []byte(maventest.POM("org.slf4j:slf4j-api:2.0.9")))

	client := maven.NewClient(maven.Options{
		Repositories: []string{maventest.BaseURL, mirror + "/"},
		Transport:    repo,
		Cache:        cache.NewNullCache(),
	})
	if _, err := client.FetchPOM(context.Background(), slf4j); err != nil {
		t.Fatalf("FetchPOM error: %v", err)
	}
	if repo.Fetches(maventest.POMURL(slf4j)) != 1 || repo.Fetches(mirrorURL(slf4j)) != 1 {
		t.Error("expected one request to each repository")
	}
}

func TestRepositoryStopsOnNonNotFound(t *testing.T) {
	repo := maventest.New()
	repo.SetStatus(maventest.POMURL(slf4j), http.StatusUnauthorized)
	repo.Add(mirrorURL(slf4j), []byte(maventest.POM("org.slf4j:slf4j-api:2.0.9")))

	client := maven.NewClient(maven.Options{
		Repositories: []string{maventest.BaseURL, mirror},
		Transport:    repo,
		Cache:        cache.NewNullCache(),
	})
	_, err := client.FetchPOM(context.Background(), slf4j)
	if !errors.Is(err, errors.ErrCodeHTTPStatus) {
		t.Fatalf("error = %v, want HTTP_STATUS", err)
	}
	if repo.Fetches(mirrorURL(slf4j)) != 0 {
		t.Error("a 401 must not fall through to the next repository")
	}
}

func TestClientCachesPOMs(t *testing.T) {
	repo := maventest.New()
	repo.AddPOM(slf4j, maventest.POM("org.slf4j:slf4j-api:2.0.9"))
	mc, _ := cache.NewMemoryCache(16)

	opts := maven.Options{Repositories: []string{maventest.BaseURL}, Transport: repo, Cache: mc}
	client := maven.NewClient(opts)
	ctx := context.Background()

	for range 3 {
		if _, err := client.FetchPOM(ctx, slf4j); err != nil {
			t.Fatal(err)
		}
	}
	if n := repo.Fetches(maventest.POMURL(slf4j)); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}

	opts.Refresh = true
	if _, err := maven.NewClient(opts).FetchPOM(ctx, slf4j); err != nil {
		t.Fatal(err)
	}
	if n := repo.Fetches(maventest.POMURL(slf4j)); n != 2 {
		t.Errorf("fetches after refresh = %d, want 2", n)
	}
}

func TestClientDoesNotCacheFailures(t *testing.T) {
	repo := maventest.New()
	mc, _ := cache.NewMemoryCache(16)
	client := maven.NewClient(maven.Options{Repositories: []string{maventest.BaseURL}, Transport: repo, Cache: mc})
	ctx := context.Background()

	if _, err := client.FetchPOM(ctx, slf4j); err == nil {
		t.Fatal("expected 404")
	}
	repo.AddPOM(slf4j, maventest.POM("org.slf4j:slf4j-api:2.0.9"))
	if _, err := client.FetchPOM(ctx, slf4j); err != nil {
		t.Errorf("second fetch should reach the repository: %v", err)
	}
}

func TestURLs(t *testing.T) {
	client := maven.NewClient(maven.Options{Repositories: []string{"https://repo.example/m2/"}})
	if got := client.POMURL(slf4j); got != "https://repo.example/m2/org/slf4j/slf4j-api/2.0.9/slf4j-api-2.0.9.pom" {
		t.Errorf("POMURL = %s", got)
	}
	if got := client.JarURL(slf4j); got != "https://repo.example/m2/org/slf4j/slf4j-api/2.0.9/slf4j-api-2.0.9.jar" {
		t.Errorf("JarURL = %s", got)
	}
	if got := maven.NewClient(maven.Options{}).Repositories(); len(got) != 1 || got[0] != maven.CentralURL {
		t.Errorf("default repositories = %v", got)
	}
}

func TestDownloadJar(t *testing.T) {
	repo := maventest.New()
	repo.AddJar(slf4j, []byte("PK\x03\x04jar-bytes"))
	dest := filepath.Join(t.TempDir(), "lib", slf4j.JarFilename())

	if err := repo.Client().DownloadJar(context.Background(), slf4j, dest); err != nil {
		t.Fatalf("DownloadJar error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "PK\x03\x04jar-bytes" {
		t.Errorf("jar content = %q", data)
	}
}

func TestDownloadJarMissing(t *testing.T) {
	repo := maventest.New()
	dest := filepath.Join(t.TempDir(), "x.jar")
	if err := repo.Client().DownloadJar(context.Background(), slf4j, dest); !errors.IsNotFound(err) {
		t.Errorf("error = %v, want 404", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should be written on failure")
	}
}

func newSearchServer(t *testing.T, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	body := `{"response":{"numFound":2,"docs":[
		{"id":"org.slf4j:slf4j-api","g":"org.slf4j","a":"slf4j-api","latestVersion":"2.0.9"},
		{"id":"org.slf4j:slf4j-simple","g":"org.slf4j","a":"slf4j-simple","latestVersion":"2.0.9"}]}}`
	srv := newSearchServer(t, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "slf4j" || q.Get("rows") != "5" || q.Get("wt") != "json" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
	})

	client := maven.NewClient(maven.Options{SearchURL: srv.URL + "/solrsearch/select", Cache: cache.NewNullCache()})
	res, err := client.Search(context.Background(), "slf4j", 5)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if res.NumFound != 2 || len(res.Docs) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if got := res.Docs[0].Coordinate().String(); got != "org.slf4j:slf4j-api:2.0.9" {
		t.Errorf("Docs[0].Coordinate() = %s", got)
	}
}

func TestSearchBadJSON(t *testing.T) {
	srv := newSearchServer(t, "{not json", nil)
	client := maven.NewClient(maven.Options{SearchURL: srv.URL, Cache: cache.NewNullCache()})
	_, err := client.Search(context.Background(), "x", 1)
	if !errors.Is(err, errors.ErrCodeJSONParse) {
		t.Errorf("error = %v, want JSON_PARSE", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	_, err := maven.NewClient(maven.Options{}).Search(context.Background(), "", 10)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestListVersions(t *testing.T) {
	body := `{"response":{"numFound":4,"docs":[
		{"id":"a","g":"org.slf4j","a":"slf4j-api","v":"1.9.0"},
		{"id":"b","g":"org.slf4j","a":"slf4j-api","v":"2.0.9"},
		{"id":"c","g":"org.slf4j","a":"slf4j-api","v":"2.0.10"},
		{"id":"d","g":"org.slf4j","a":"slf4j-api","v":"2.0.0-alpha1"}]}}`
	srv := newSearchServer(t, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != `g:"org.slf4j" AND a:"slf4j-api"` {
			t.Errorf("q = %s", q.Get("q"))
		}
		if q.Get("core") != "gav" || q.Get("rows") != "100" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
	})
	client := maven.NewClient(maven.Options{SearchURL: srv.URL, Cache: cache.NewNullCache()})

	versions, err := client.ListVersions(context.Background(), "org.slf4j", "slf4j-api")
	if err != nil {
		t.Fatalf("ListVersions error: %v", err)
	}
	want := []string{"2.0.10", "2.0.9", "2.0.0-alpha1", "1.9.0"}
	if len(versions) != len(want) {
		t.Fatalf("versions = %v, want %v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("versions[%d] = %s, want %s", i, versions[i], want[i])
		}
	}

	latest, err := client.LatestVersion(context.Background(), "org.slf4j", "slf4j-api")
	if err != nil || latest != "2.0.10" {
		t.Errorf("LatestVersion = %q, %v", latest, err)
	}
}

func TestLatestVersionNotFound(t *testing.T) {
	srv := newSearchServer(t, `{"response":{"numFound":0,"docs":[]}}`, nil)
	client := maven.NewClient(maven.Options{SearchURL: srv.URL, Cache: cache.NewNullCache()})
	_, err := client.LatestVersion(context.Background(), "org.nope", "nope")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("User-Agent header missing")
		}
		if r.Header.Get("X-Token") != "secret" {
			t.Error("custom header missing")
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<project/>"))
	}))
	defer srv.Close()

	tr := maven.NewHTTPTransport(nil, map[string]string{"X-Token": "secret"})
	ctx := context.Background()

	resp, err := tr.Get(ctx, srv.URL+"/ok")
	if err != nil || resp.Status != 200 || string(resp.Body) != "<project/>" {
		t.Errorf("Get(ok) = %+v, %v", resp, err)
	}
	resp, err = tr.Get(ctx, srv.URL+"/missing")
	if err != nil || resp.Status != 404 {
		t.Errorf("Get(missing) = %+v, %v (non-2xx is not a transport error)", resp, err)
	}
}

func TestHTTPTransportNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := maven.NewHTTPTransport(nil, nil).Get(context.Background(), url)
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error = %v, want NETWORK_ERROR", err)
	}
}
