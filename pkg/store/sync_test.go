package store

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/polytunnel/polytunnel/pkg/errors"
	"github.com/polytunnel/polytunnel/pkg/maven"
	"github.com/polytunnel/polytunnel/pkg/maven/maventest"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "lib"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSync(t *testing.T) {
	repo := maventest.New()
	a := maven.NewCoordinate("ex", "a", "1")
	b := maven.NewCoordinate("ex", "b", "1")
	gone := maven.NewCoordinate("ex", "gone", "1")
	repo.AddJar(a, []byte("jar-a"))
	repo.AddJar(b, []byte("jar-b"))

	dst, mirror := newLocal(t), newLocal(t)
	ctx := context.Background()
	coords := []maven.Coordinate{b, gone, a}

	report, err := Sync(ctx, repo.Client(), dst, coords, SyncOptions{Workers: 2, Mirror: mirror})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(report.Downloaded) != 2 || report.Downloaded[0].Key() != "ex:a:1" {
		t.Errorf("Downloaded = %v", report.Downloaded)
	}
	if len(report.Failed) != 1 || report.Failed[0].Coordinate.Key() != "ex:gone:1" || !errors.IsNotFound(report.Failed[0].Err) {
		t.Errorf("Failed = %+v", report.Failed)
	}
	for _, s := range []Store{dst, mirror} {
		data, err := s.Get(ctx, ArtifactKey(a))
		if err != nil || string(data) != "jar-a" {
			t.Errorf("stored jar = %q, %v", data, err)
		}
	}

	before := repo.Fetches(maventest.JarURL(a))
	report, err = Sync(ctx, repo.Client(), dst, []maven.Coordinate{a, b}, SyncOptions{})
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if len(report.Skipped) != 2 || len(report.Downloaded) != 0 {
		t.Errorf("second run report = %+v", report)
	}
	if repo.Fetches(maventest.JarURL(a)) != before {
		t.Error("existing jar downloaded again")
	}

	report, err = Sync(ctx, repo.Client(), dst, []maven.Coordinate{a}, SyncOptions{Force: true})
	if err != nil || len(report.Downloaded) != 1 {
		t.Errorf("forced Sync = %+v, %v", report, err)
	}
}

func TestSyncCanceled(t *testing.T) {
	repo := maventest.New()
	a := maven.NewCoordinate("ex", "a", "1")
	repo.AddJar(a, []byte("jar-a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sync(ctx, repo.Client(), newLocal(t), []maven.Coordinate{a}, SyncOptions{})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Sync error = %v, want context.Canceled", err)
	}
}
