package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pawlink/core/internal/config"
	"github.com/pawlink/core/internal/modules/review"
	pkgcron "github.com/pawlink/core/internal/pkg/cron"
	"github.com/pawlink/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, cache *review.MemoryContextCache, taskSvc *taskqueue.Service, cfg *config.AppConfig, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")
	cacheTTL := time.Duration(cfg.Analysis.CacheTTLHours) * time.Hour

	sched.Register(pkgcron.Job{
		Name:        "sweep_context_cache",
		Description: "Evict conversation contexts not updated within the cache TTL",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			removed := cache.Sweep(cacheTTL)
			if removed > 0 {
				cronLogger.Info(fmt.Sprintf("swept %d stale conversation contexts", removed))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_finished_tasks",
		Description: "Remove finished background tasks older than 24 hours",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			before := time.Now().Add(-24 * time.Hour).UnixMilli()
			if err := taskSvc.DeleteFinished(ctx, before); err != nil {
				cronLogger.Warn("task cleanup failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
}
