package task

import (
	"time"

	"go.uber.org/zap"
)

// StaleCleaner 由进程内的 IP 限流器实现
type StaleCleaner interface {
	CleanupStale(maxIdle time.Duration) int
}

// LimiterCleanupJob 删除长时间未访问的 IP 令牌桶
type LimiterCleanupJob struct {
	cleaner StaleCleaner
	maxIdle time.Duration
	logger  *zap.Logger
}

func NewLimiterCleanupJob(cleaner StaleCleaner, maxIdle time.Duration, logger *zap.Logger) *LimiterCleanupJob {
	return &LimiterCleanupJob{cleaner: cleaner, maxIdle: maxIdle, logger: logger}
}

func (j *LimiterCleanupJob) Run() {
	if removed := j.cleaner.CleanupStale(j.maxIdle); removed > 0 {
		j.logger.Debug("removed stale ip limiters", zap.Int("removed", removed))
	}
}

func (j *LimiterCleanupJob) Name() string {
	return "LimiterCleanupJob"
}
