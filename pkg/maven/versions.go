package maven

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// SortVersions orders versions newest first. Versions that parse as semantic
// versions are compared semantically and sort ahead of those that do not
// (e.g. "1.0.0.Final"), which fall back to reverse lexical order.
func SortVersions(versions []string) {
	parsed := make(map[string]*semver.Version, len(versions))
	for _, v := range versions {
		if sv, err := semver.NewVersion(v); err == nil {
			parsed[v] = sv
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := parsed[versions[i]], parsed[versions[j]]
		switch {
		case a != nil && b != nil:
			return a.GreaterThan(b)
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return versions[i] > versions[j]
		}
	})
}

// CompareVersions returns -1, 0 or 1 like strings.Compare, using semantic
// ordering when both versions parse.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
