package service

import (
	"context"
	"fmt"
	"time"
)

// Freshness describes whether the stored collection is recent enough to skip a load.
type Freshness struct {
	Fresh    bool
	LastLoad time.Time
	Count    int
}

// CheckFreshness reports the store as fresh when the last successful load
// happened within window and at least one record is stored.
func (l *Loader) CheckFreshness(ctx context.Context, window time.Duration) (Freshness, error) {
	last, err := l.store.GetLastLoadTime(ctx)
	if err != nil {
		return Freshness{}, fmt.Errorf("get last load time: %w", err)
	}
	count, err := l.store.GetRecordCount(ctx)
	if err != nil {
		return Freshness{}, fmt.Errorf("count records: %w", err)
	}

	return Freshness{
		Fresh:    !last.IsZero() && time.Since(last) < window && count > 0,
		LastLoad: last,
		Count:    count,
	}, nil
}
