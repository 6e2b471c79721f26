package app

import (
	"context"
	"log"
	"time"

	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/state"
)

const defaultPollInterval = 5 * time.Second

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client api.Fetcher, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			refresh(ctx, store, client)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, client api.Fetcher) {
	jobs, err := client.FetchJobs(ctx)
	if err != nil {
		store.Update(api.JobsResponse{}, err)
		log.Printf("jobs poll failed: %v", err)
		return
	}
	store.Update(jobs, nil)
}
