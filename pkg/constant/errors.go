/*
 * @Description:
 * @Date: 2025-06-27 12:08:15
 */
package constant

import "errors"

// 定义业务逻辑相关的标准错误
var (
	// ErrBadRequest 表示请求参数错误，可以由 Handler 转换为 400
	ErrBadRequest = errors.New("错误的请求")

	// ErrInvalidAction 表示点赞操作类型不是 like / unlike，可以由 Handler 转换为 400
	ErrInvalidAction = errors.New("无效的操作类型")

	// ErrInvalidEntity 表示实体ID为空或不合法，可以由 Handler 转换为 400
	ErrInvalidEntity = errors.New("无效的实体ID")

	// ErrInvalidTimestamp 表示时间参数无法解析，可以由 Handler 转换为 400
	ErrInvalidTimestamp = errors.New("无效的时间参数")

	// ErrRateLimited 表示请求过于频繁，可以由 Handler 转换为 429
	ErrRateLimited = errors.New("请求过于频繁")

	// ErrStoreUnavailable 表示存储后端故障，可以由 Handler 转换为 500
	ErrStoreUnavailable = errors.New("存储服务不可用")

	// ErrContentUnavailable 表示内容提供方（会话列表）读取失败，可以由 Handler 转换为 500
	ErrContentUnavailable = errors.New("内容服务不可用")

	// ErrMemoryStoreForbidden 表示生产环境未显式允许时拒绝降级到内存存储
	ErrMemoryStoreForbidden = errors.New("生产环境禁止使用内存存储")
)
