package resolver

import (
	"testing"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
)

func TestDiagnosticString(t *testing.T) {
	c := maven.NewCoordinate("ex", "b", "1")
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{Diagnostic{Coordinate: c, Kind: KindDepth}, "depth: ex:b:1"},
		{Diagnostic{Coordinate: c, From: "ex:a:1", Kind: KindUnversioned}, "unversioned: ex:b:1 (from ex:a:1)"},
		{
			Diagnostic{Coordinate: c, From: "ex:a:1", Kind: KindFetch, Err: errors.New(errors.ErrCodeNetwork, "timeout")},
			"fetch: ex:b:1 (from ex:a:1): NETWORK_ERROR: timeout",
		},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSortDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{Coordinate: maven.NewCoordinate("ex", "z", "1"), Kind: KindFetch},
		{Coordinate: maven.NewCoordinate("ex", "a", "1"), Kind: KindUnversioned},
		{Coordinate: maven.NewCoordinate("ex", "a", "1"), From: "ex:y:1", Kind: KindCycle},
		{Coordinate: maven.NewCoordinate("ex", "a", "1"), From: "ex:x:1", Kind: KindCycle},
	}
	sortDiagnostics(diags)
	want := []string{"cycle:ex:a:1:ex:x:1", "cycle:ex:a:1:ex:y:1", "fetch:ex:z:1:", "unversioned:ex:a:1:"}
	for i, d := range diags {
		if got := string(d.Kind) + ":" + d.Coordinate.Key() + ":" + d.From; got != want[i] {
			t.Errorf("diags[%d] = %s, want %s", i, got, want[i])
		}
	}
}
