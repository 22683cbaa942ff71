package scheduler

import (
	"time"

	"github.com/electroegy/electroegy-backend/internal/app/repository"
	"github.com/electroegy/electroegy-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartItemRetention is how long an item may sit in a cart before the
// housekeeping job removes it.
const CartItemRetention = 30 * 24 * time.Hour

// CleanupScheduler periodically purges expired password reset tokens and
// stale cart items.
type CleanupScheduler struct {
	cron      *cron.Cron
	resetRepo repository.PasswordResetRepository
	cartRepo  repository.CartRepository
	spec      string
}

func NewCleanupScheduler(
	resetRepo repository.PasswordResetRepository,
	cartRepo repository.CartRepository,
	spec string,
) *CleanupScheduler {
	return &CleanupScheduler{
		cron:      cron.New(),
		resetRepo: resetRepo,
		cartRepo:  cartRepo,
		spec:      spec,
	}
}

func (s *CleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runCleanup)
	if err != nil {
		logger.Error("Failed to register cleanup cron job", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cleanup scheduler started", map[string]interface{}{
		"spec": s.spec,
	})

	return nil
}

func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cleanup scheduler stopped", nil)
}

func (s *CleanupScheduler) runCleanup() {
	logger.Info("Starting scheduled cleanup", nil)

	if err := s.resetRepo.DeleteExpired(); err != nil {
		logger.Error("Failed to purge expired password reset tokens", err)
	}

	cutoff := time.Now().Add(-CartItemRetention)
	removed, err := s.cartRepo.DeleteItemsOlderThan(cutoff)
	if err != nil {
		logger.Error("Failed to purge stale cart items", err)
		return
	}

	logger.Info("Scheduled cleanup finished", map[string]interface{}{
		"stale_cart_items_removed": removed,
	})
}
