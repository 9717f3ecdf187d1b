package checklist

import (
	"context"
	"time"
)

// draftSweepInterval spaces the passes of RunRetention.
const draftSweepInterval = time.Hour

// RunRetention drops drafts untouched for cfg.DraftRetentionDays, once right
// away and then hourly, until ctx is done. With retention off it returns
// immediately.
func (e *Engine) RunRetention(ctx context.Context) {
	days := e.cfg.DraftRetentionDays
	if days <= 0 {
		return
	}
	maxAge := time.Duration(days) * 24 * time.Hour
	log := e.logger.With("draftRetentionDays", days)

	for ctx.Err() == nil {
		switch n, err := e.sweepDrafts(ctx, maxAge); {
		case err != nil:
			log.Error("draft sweep failed", "error", err)
		case n > 0:
			log.Info("stale drafts removed", "count", n)
		}

		select {
		case <-ctx.Done():
		case <-time.After(draftSweepInterval):
		}
	}
}

func (e *Engine) sweepDrafts(ctx context.Context, maxAge time.Duration) (int, error) {
	return e.PurgeDrafts(ctx, e.now().Add(-maxAge))
}
