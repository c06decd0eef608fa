package backend

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Stats fetches the three aggregates concurrently and waits for all of them.
// There is no partial result: any failure fails the whole call, and an
// unauthorized session wins over other failures.
func (c *Client) Stats(ctx context.Context, session Session) (*Stats, error) {
	if session.IsZero() {
		return nil, &UnauthorizedError{Op: "stats", Message: "Please log in"}
	}

	var (
		stats Stats
		errs  [3]error
		g     errgroup.Group
	)

	g.Go(func() error {
		stats.Total, errs[0] = c.StatsTotal(ctx, session)
		return nil
	})
	g.Go(func() error {
		stats.PerDay, errs[1] = c.StatsPerDay(ctx, session)
		return nil
	})
	g.Go(func() error {
		stats.PerGroup, errs[2] = c.StatsPerGroup(ctx, session)
		return nil
	})
	_ = g.Wait()

	if err := firstStatsError(errs[:]); err != nil {
		return nil, err
	}

	return &stats, nil
}

func firstStatsError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if IsUnauthorized(err) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
