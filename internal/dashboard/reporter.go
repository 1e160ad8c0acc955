// Package dashboard aggregates record counts across the stores.
package dashboard

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Counter reports the number of records in one store.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Stats is the aggregate snapshot. Counts are taken concurrently and are not
// mutually consistent under concurrent writes.
type Stats struct {
	Demos     int64 `json:"demos"`
	Feedbacks int64 `json:"feedbacks"`
	Proposals int64 `json:"proposals"`
	Admins    int64 `json:"admins"`
}

// Sources names the store behind each count.
type Sources struct {
	Demos     Counter
	Feedbacks Counter
	Proposals Counter
	Admins    Counter
}

// Reporter computes Stats.
type Reporter struct {
	sources Sources
}

// NewReporter validates that every source is present.
func NewReporter(sources Sources) (*Reporter, error) {
	switch {
	case sources.Demos == nil:
		return nil, eris.New("demo counter is required")
	case sources.Feedbacks == nil:
		return nil, eris.New("feedback counter is required")
	case sources.Proposals == nil:
		return nil, eris.New("proposal counter is required")
	case sources.Admins == nil:
		return nil, eris.New("admin counter is required")
	}
	return &Reporter{sources: sources}, nil
}

// Stats runs the four counts concurrently. Any failure fails the whole report.
func (r *Reporter) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	group, groupCtx := errgroup.WithContext(ctx)

	count := func(name string, counter Counter, into *int64) {
		group.Go(func() error {
			n, err := counter.Count(groupCtx)
			if err != nil {
				return eris.Wrapf(err, "counting %s", name)
			}
			*into = n
			return nil
		})
	}

	count("demos", r.sources.Demos, &stats.Demos)
	count("feedbacks", r.sources.Feedbacks, &stats.Feedbacks)
	count("proposals", r.sources.Proposals, &stats.Proposals)
	count("admins", r.sources.Admins, &stats.Admins)

	if err := group.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
