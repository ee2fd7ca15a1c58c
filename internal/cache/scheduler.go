package cache

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler empties a Cache on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	cache  *Cache
	logger *slog.Logger
}

// NewScheduler validates spec (standard 5-field cron or a descriptor such as
// "@hourly") and registers the invalidation job.
func NewScheduler(spec string, c *Cache, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), cache: c, logger: logger}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid cache invalidation schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the cron scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cache invalidation scheduler started")
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cache invalidation scheduler stopped")
}

func (s *Scheduler) run() {
	n := s.cache.InvalidateAll()
	s.logger.Info("scheduled cache invalidation", "entries", n)
}
