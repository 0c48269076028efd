package store

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/polytunnel/polytunnel/pkg/maven"
)

// DefaultSyncWorkers bounds concurrent jar downloads.
const DefaultSyncWorkers = 8

// JarFetcher downloads jar bytes. *maven.Client implements it.
type JarFetcher interface {
	FetchJar(ctx context.Context, coord maven.Coordinate) ([]byte, error)
}

// SyncOptions configures Sync.
type SyncOptions struct {
	Workers int         // Concurrent downloads (default: 8)
	Force   bool        // Download even when the key already exists
	Mirror  Store       // Optional second destination, e.g. an S3Store
	Logger  *log.Logger // Per-artifact progress (optional)
}

// Failure is an artifact that could not be synced.
type Failure struct {
	Coordinate maven.Coordinate
	Err        error
}

// SyncReport lists what Sync did, each slice sorted by key.
type SyncReport struct {
	Downloaded []maven.Coordinate
	Skipped    []maven.Coordinate
	Failed     []Failure
}

// Sync copies the jar of every coordinate into dst (and Mirror, if set).
// Coordinates already present in dst are skipped unless Force is set.
// Per-artifact failures are collected in the report; the returned error is
// non-nil only when ctx is done.
func Sync(ctx context.Context, fetcher JarFetcher, dst Store, coords []maven.Coordinate, opts SyncOptions) (*SyncReport, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultSyncWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var (
		mu     sync.Mutex
		report SyncReport
	)
	record := func(c maven.Coordinate, skipped bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			report.Failed = append(report.Failed, Failure{Coordinate: c, Err: err})
		case skipped:
			report.Skipped = append(report.Skipped, c)
		default:
			report.Downloaded = append(report.Downloaded, c)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, c := range coords {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			skipped, err := syncOne(gctx, fetcher, dst, opts, c)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil {
				logger.Warn("sync failed", "coordinate", c.String(), "err", err)
			} else if !skipped {
				logger.Debug("synced", "coordinate", c.String())
			}
			record(c, skipped, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byKey := func(cs []maven.Coordinate) {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Key() < cs[j].Key() })
	}
	byKey(report.Downloaded)
	byKey(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].Coordinate.Key() < report.Failed[j].Coordinate.Key()
	})
	return &report, nil
}

func syncOne(ctx context.Context, fetcher JarFetcher, dst Store, opts SyncOptions, c maven.Coordinate) (bool, error) {
	key := ArtifactKey(c)
	if !opts.Force {
		ok, err := dst.Has(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	data, err := fetcher.FetchJar(ctx, c)
	if err != nil {
		return false, err
	}
	if err := dst.Put(ctx, key, data); err != nil {
		return false, err
	}
	if opts.Mirror != nil {
		if err := opts.Mirror.Put(ctx, key, data); err != nil {
			return false, err
		}
	}
	return false, nil
}
