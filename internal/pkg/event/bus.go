/*
 * @Description: 一个带固定Worker池的异步事件总线
 * @Date: 2025-07-10 19:06:12
 */
package event

import (
	"sync"

	"go.uber.org/zap"
)

// 定义事件类型
type Topic string

const (
	// InboxRead 访客标记会话已读，载荷为 InboxReadPayload
	InboxRead Topic = "inbox:read"
)

// InboxReadPayload 会话已读事件载荷
type InboxReadPayload struct {
	ChatID    string
	VisitorID string
}

// 事件处理器函数类型
type Handler func(payload interface{})

// Event 是在通道中传递的事件结构
type Event struct {
	Topic   Topic
	Payload interface{}
}

// EventBus 实现了基于Worker池的异步事件总线
type EventBus struct {
	mu        sync.RWMutex
	handlers  map[Topic][]Handler
	closed    bool           // 受 mu 保护，关闭后不再向通道发送
	eventChan chan Event     // 带缓冲的事件通道
	wg        sync.WaitGroup // 用于优雅关闭
	logger    *zap.Logger
	closeOnce sync.Once
}

// 定义Worker池和通道的配置
const (
	DefaultWorkerCount = 4
	DefaultChannelSize = 1024
)

// NewEventBus 创建并启动一个新的事件总线
func NewEventBus(logger *zap.Logger) *EventBus {
	return newEventBus(logger, DefaultWorkerCount, DefaultChannelSize)
}

func newEventBus(logger *zap.Logger, workers, size int) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := &EventBus{
		handlers:  make(map[Topic][]Handler),
		eventChan: make(chan Event, size),
		logger:    logger.Named("eventbus"),
	}
	bus.startWorkers(workers)
	return bus
}

// startWorkers 启动固定数量的后台worker
func (b *EventBus) startWorkers(count int) {
	for i := 0; i < count; i++ {
		b.wg.Add(1)
		go b.worker(i + 1)
	}
}

// worker 不断从通道中读取并处理事件
func (b *EventBus) worker(workerID int) {
	defer b.wg.Done()
	b.logger.Debug("worker started", zap.Int("worker", workerID))

	for event := range b.eventChan {
		b.mu.RLock()
		handlers := b.handlers[event.Topic]
		b.mu.RUnlock()

		for _, handler := range handlers {
			b.dispatch(workerID, event, handler)
		}
	}
	b.logger.Debug("worker stopped", zap.Int("worker", workerID))
}

// dispatch 执行单个处理器，处理器 panic 不会拖垮 worker
func (b *EventBus) dispatch(workerID int, event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.Int("worker", workerID),
				zap.String("topic", string(event.Topic)),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event.Payload)
}

// Subscribe 订阅一个事件
func (b *EventBus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish 发布一个事件，非阻塞；通道已满或总线已关闭时丢弃并告警
func (b *EventBus) Publish(topic Topic, payload interface{}) {
	event := Event{Topic: topic, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Warn("event bus is closed, dropping event", zap.String("topic", string(topic)))
		return
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event channel is full, dropping event", zap.String("topic", string(topic)))
	}
}

// Shutdown 优雅地关闭事件总线，等待队列中的事件处理完毕
func (b *EventBus) Shutdown() {
	b.closeOnce.Do(func() {
		b.logger.Info("shutting down")
		b.mu.Lock()
		b.closed = true
		close(b.eventChan)
		b.mu.Unlock()
		b.wg.Wait()
		b.logger.Info("all workers have stopped")
	})
}
