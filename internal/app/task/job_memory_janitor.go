package task

import (
	"github.com/anzhiyu-c/anheyu-social/pkg/service/utility"

	"go.uber.org/zap"
)

// MemoryJanitorJob 清理内存存储中已过期的键（限流窗口、会话列表缓存）
type MemoryJanitorJob struct {
	purger utility.Purger
	logger *zap.Logger
}

func NewMemoryJanitorJob(purger utility.Purger, logger *zap.Logger) *MemoryJanitorJob {
	return &MemoryJanitorJob{purger: purger, logger: logger}
}

func (j *MemoryJanitorJob) Run() {
	if removed := j.purger.PurgeExpired(); removed > 0 {
		j.logger.Debug("purged expired keys", zap.Int("removed", removed))
	}
}

func (j *MemoryJanitorJob) Name() string {
	return "MemoryJanitorJob"
}
