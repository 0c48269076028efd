package resolver

import (
	"fmt"
	"sort"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

// Kind classifies a Diagnostic.
type Kind string

const (
	// KindFetch: a transitive POM could not be fetched or parsed.
	KindFetch Kind = "fetch"
	// KindParent: an ancestor POM could not be fetched, or the parent chain loops.
	KindParent Kind = "parent"
	// KindCycle: a dependency is already on its own path from a root.
	KindCycle Kind = "cycle"
	// KindUnversioned: a dependency has no version after dependency management.
	KindUnversioned Kind = "unversioned"
	// KindDepth: a dependency lies beyond Options.MaxDepth.
	KindDepth Kind = "depth"
)

// Diagnostic records a subtree that was skipped during resolution.
type Diagnostic struct {
	Coordinate maven.Coordinate
	From       string // key of the dependent, empty for roots
	Kind       Kind
	Err        error
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Kind, d.Coordinate)
	if d.From != "" {
		s += " (from " + d.From + ")"
	}
	if d.Err != nil {
		s += ": " + d.Err.Error()
	}
	return s
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if ak, bk := a.Coordinate.Key(), b.Coordinate.Key(); ak != bk {
			return ak < bk
		}
		return a.From < b.From
	})
}
