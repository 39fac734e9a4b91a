// anheyu-social/pkg/service/revalidate/service.go
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SecretHeader 携带共享密钥的请求头
const SecretHeader = "X-Revalidate-Secret"

// InboxPath 收件箱页面路径
const InboxPath = "/inbox"

// RevalidateService 通知外部渲染层让页面缓存失效
type RevalidateService interface {
	// Revalidate 让指定路径的缓存失效；未配置地址时跳过
	Revalidate(ctx context.Context, path string) error
}

type Options struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

type serviceImpl struct {
	url        string
	secret     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewService 创建页面失效通知服务
func NewService(opts Options, logger *zap.Logger) RevalidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &serviceImpl{
		url:    opts.URL,
		secret: opts.Secret,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger.Named("revalidate"),
	}
}

func (s *serviceImpl) Revalidate(ctx context.Context, path string) error {
	if s.url == "" {
		s.logger.Debug("未配置失效通知地址，跳过", zap.String("path", path))
		return nil
	}

	body, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set(SecretHeader, s.secret)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送失效通知失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("失效通知返回状态 %d: %s", resp.StatusCode, string(snippet))
	}

	s.logger.Debug("页面缓存已失效", zap.String("path", path))
	return nil
}
