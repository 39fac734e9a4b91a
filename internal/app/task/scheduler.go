/*
 * @Description: 定时任务调度
 * @Date: 2025-07-12 16:09:46
 */
package task

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// EveryMinute 秒级 cron 表达式：每分钟第 0 秒
	EveryMinute = "0 * * * * *"
	// EveryFiveMinutes 每 5 分钟
	EveryFiveMinutes = "0 */5 * * * *"
)

// Scheduler 封装了 cron 实例，负责任务的注册、启动和停止。
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler 创建调度器，所有任务都经过 panic 恢复与日志装饰器
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cron")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		),
	)

	return &Scheduler{cron: c, logger: logger}
}

// Register 按 cron 表达式注册一个任务
func (s *Scheduler) Register(schedule string, job Job) error {
	if _, err := s.cron.AddJob(schedule, job); err != nil {
		return fmt.Errorf("注册任务 %s 失败: %w", job.Name(), err)
	}
	s.logger.Info("registered job", zap.String("job", job.Name()), zap.String("schedule", schedule))
	return nil
}

// Len 已注册的任务数
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start 启动 cron 调度器。
func (s *Scheduler) Start() {
	s.logger.Info("cron scheduler started")
	s.cron.Start()
}

// Stop 停止调度器并等待正在运行的任务结束。
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}
