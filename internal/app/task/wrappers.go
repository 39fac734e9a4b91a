/*
 * @Description: 提供了用于 cron 任务的中间件（装饰器）。
 * @Date: 2025-06-29 22:36:09
 */
package task

import (
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobWrapper 是 cron.JobWrapper 的类型别名，用于简化代码。
type JobWrapper = cron.JobWrapper

// NewLoggingWrapper 记录每个任务的开始和结束，并带有唯一的执行ID
func NewLoggingWrapper(logger *zap.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			jobLogger := logger.With(
				zap.String("job_name", getJobName(j)),
				zap.String("execution_id", uuid.NewString()),
			)

			startTime := time.Now()
			jobLogger.Debug("job execution started")

			j.Run()

			jobLogger.Debug("job execution finished", zap.Duration("duration", time.Since(startTime)))
		})
	}
}

// NewPanicRecoveryWrapper 捕获任务 panic 并记录堆栈，不会导致进程退出
func NewPanicRecoveryWrapper(logger *zap.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("job panicked",
						zap.String("job_name", getJobName(j)),
						zap.Any("panic", r),
						zap.String("stack_trace", string(debug.Stack())),
					)
				}
			}()

			j.Run()
		})
	}
}

// getJobName 优先使用任务的 Name()，否则通过反射取类型名
func getJobName(j cron.Job) string {
	if namedJob, ok := j.(interface{ Name() string }); ok {
		return namedJob.Name()
	}

	jobType := reflect.TypeOf(j)
	if jobType.Kind() == reflect.Ptr {
		return jobType.Elem().String()
	}
	return jobType.String()
}
