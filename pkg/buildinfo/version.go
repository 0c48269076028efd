// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/polytunnel/polytunnel/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/polytunnel/polytunnel/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/polytunnel/polytunnel/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/polytunnel
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the JSON shape served by GET /version.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build information.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// UserAgent is sent with every repository request.
func UserAgent() string {
	return "polytunnel/" + Version
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
