/*
 * @Description: 统一配置管理 (手动加载: conf.ini -> 环境变量)
 * @Date: 2025-06-28 00:21:55
 */
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultFilePath 默认配置文件路径
const DefaultFilePath = "data/conf.ini"

// EnvPrefix 环境变量前缀，例如 SOCIAL_REDIS_ADDR
const EnvPrefix = "SOCIAL"

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug, KeyServerEnv,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB, KeyRedisTimeout,
	KeyStoreAllowMemoryFallback,
	KeyRateLimitRequests, KeyRateLimitWindow, KeyRateLimitPrefix,
	KeyRateLimitReadPerMinute, KeyRateLimitReadBurst,
	KeyInboxChatsFile, KeyInboxChatsCacheTTL,
	KeyRevalidateURL, KeyRevalidateSecret,
}

const (
	KeyServerPort  = "System.Port"
	KeyServerDebug = "System.Debug"
	KeyServerEnv   = "System.Env"

	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"
	KeyRedisTimeout  = "Redis.Timeout"

	KeyStoreAllowMemoryFallback = "Store.AllowMemoryFallback"

	KeyRateLimitRequests      = "RateLimit.Requests"
	KeyRateLimitWindow        = "RateLimit.Window"
	KeyRateLimitPrefix        = "RateLimit.Prefix"
	KeyRateLimitReadPerMinute = "RateLimit.ReadPerMinute"
	KeyRateLimitReadBurst     = "RateLimit.ReadBurst"

	KeyInboxChatsFile     = "Inbox.ChatsFile"
	KeyInboxChatsCacheTTL = "Inbox.ChatsCacheTTL"

	KeyRevalidateURL    = "Revalidate.URL"
	KeyRevalidateSecret = "Revalidate.Secret"
)

// EnvProduction 生产环境标识
const EnvProduction = "production"

type Config struct {
	vp *viper.Viper
}

// Load 手动加载配置，确保可靠性：
// 1. .env 文件（如存在）注入进程环境变量
// 2. conf.ini 作为默认值
// 3. SOCIAL_* 环境变量覆盖
// 正式日志依赖配置创建，这里使用调用方传入的引导日志
func Load(filePath string, logger *zap.Logger) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = godotenv.Load()

	vp := viper.New()
	setDefaults(vp)

	// --- 步骤 1: 使用 go-ini 从文件加载配置 (作为默认值) ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("未找到配置文件，将创建默认配置文件", zap.String("path", filePath))
			if err := createDefaultConfigFile(filePath); err != nil {
				logger.Warn("创建默认配置文件失败，将仅依赖环境变量或内部默认值", zap.Error(err))
			} else {
				logger.Info("✅ 已创建默认配置文件", zap.String("path", filePath))
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					logger.Warn("重新加载配置文件失败", zap.Error(err))
				}
			}
		} else {
			// 如果文件存在但格式错误
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				// 特殊处理默认分区 "DEFAULT"
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				// 空值不覆盖内部默认值
				if strings.TrimSpace(key.Value()) == "" {
					continue
				}
				vp.Set(viperKey, key.Value())
			}
		}
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		envVarName := fmt.Sprintf("%s_%s", EnvPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			logger.Info("环境变量覆盖配置", zap.String("env", envVarName), zap.String("key", key))
		}
	}

	return &Config{vp: vp}, nil
}

// New 直接从键值对构建配置，主要用于测试
func New(values map[string]interface{}) *Config {
	vp := viper.New()
	setDefaults(vp)
	for k, v := range values {
		vp.Set(k, v)
	}
	return &Config{vp: vp}
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault(KeyServerPort, "8091")
	vp.SetDefault(KeyServerEnv, "development")
	vp.SetDefault(KeyRedisDB, 0)
	vp.SetDefault(KeyRedisTimeout, "3s")
	vp.SetDefault(KeyRateLimitRequests, 10)
	vp.SetDefault(KeyRateLimitWindow, "1m")
	vp.SetDefault(KeyRateLimitPrefix, "rate:like")
	vp.SetDefault(KeyRateLimitReadPerMinute, 120)
	vp.SetDefault(KeyRateLimitReadBurst, 60)
	vp.SetDefault(KeyInboxChatsFile, "data/chats.json")
	vp.SetDefault(KeyInboxChatsCacheTTL, "60s")
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

func (c *Config) GetDuration(key string) time.Duration {
	return c.vp.GetDuration(key)
}

// IsProduction 判断是否运行在生产环境
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.GetString(KeyServerEnv), EnvProduction)
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false
# production 时访客 Cookie 带 Secure 标记，并禁止静默降级到内存存储
Env = development

# Redis 配置
# 如果不配置或留空 Addr，系统将自动使用内存存储（仅限单实例开发环境）
[Redis]
Addr =
Password =
DB = 0
Timeout = 3s

[Store]
# 生产环境下是否允许降级到内存存储
AllowMemoryFallback = false

[RateLimit]
# 点赞接口：每个 IP 在滑动窗口内允许的请求数
Requests = 10
Window = 1m
Prefix = rate:like
# 只读接口的令牌桶限流
ReadPerMinute = 120
ReadBurst = 60

[Inbox]
ChatsFile = data/chats.json
ChatsCacheTTL = 60s

[Revalidate]
# 前端页面缓存刷新回调地址，留空则跳过
URL =
Secret =
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
