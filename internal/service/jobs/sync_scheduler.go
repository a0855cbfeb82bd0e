package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
	"jurisync/internal/service"
)

type SyncRunner interface {
	Run(ctx context.Context, req service.SyncRequest) (*service.SyncResult, error)
}

// SyncScheduler triggers a full sync pass on a fixed interval. The per-service
// cooldown inside the orchestrator keeps overlapping triggers harmless.
type SyncScheduler struct {
	orchestrator SyncRunner
	interval     time.Duration
}

func NewSyncScheduler(orchestrator SyncRunner, interval time.Duration) *SyncScheduler {
	return &SyncScheduler{orchestrator: orchestrator, interval: interval}
}

func (s *SyncScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Infof("Sync scheduler started, interval: %s", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping sync scheduler...")
			return
		case <-ticker.C:
			result, err := s.orchestrator.Run(ctx, service.SyncRequest{Parallel: true})
			if err != nil {
				log.Errorf("Scheduled sync failed: %v", err)
				continue
			}

			for domain, dr := range result.Domains {
				if dr.Records > 0 || len(dr.Errors) > 0 {
					log.Infof("Scheduled sync %s: %d records, %d services, %d errors",
						domain, dr.Records, dr.Services, len(dr.Errors))
				}
			}
		}
	}
}
