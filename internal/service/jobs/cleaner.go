package jobs

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
	"jurisync/internal/utils"
)

// Rate limit hits only matter inside the sliding hour; everything older is
// kept a little longer for debugging, then swept.
const hitRetention = 24 * time.Hour

type SecuritySweeper interface {
	DeleteHitsBefore(cutoff int64) error
	DeleteExpiredRules(now int64) error
}

// SecurityCleaner periodically prunes stale rate limit hits and expired
// IP rules so the security tables stay small.
type SecurityCleaner struct {
	repo SecuritySweeper
}

func NewSecurityCleaner(repo SecuritySweeper) *SecurityCleaner {
	return &SecurityCleaner{repo: repo}
}

func (s *SecurityCleaner) Start(ctx context.Context) {
	// Poll every 15 minutes
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	log.Info("Security cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping security cleaner...")
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *SecurityCleaner) cleanup() {
	now := utils.NowUTC()

	cutoff := now - hitRetention.Milliseconds()
	if err := s.repo.DeleteHitsBefore(cutoff); err != nil {
		log.Errorf("Cleaner: failed to prune rate limit hits: %v", err)
	}

	if err := s.repo.DeleteExpiredRules(now); err != nil {
		log.Errorf("Cleaner: failed to prune expired ip rules: %v", err)
	}
}
