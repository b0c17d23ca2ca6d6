package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/loyalcup/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "lc"
	pingTimeout   = 3 * time.Second
)

type store struct {
	client *redis.Client
	prefix string
}

var (
	mu      sync.RWMutex
	current *store
)

// InitRedis 初始化 Redis，连接不可用时缓存与限流整体降级为关闭
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		swap(nil)
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		swap(nil)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	swap(&store{client: client, prefix: prefix})
	return nil
}

func swap(next *store) *store {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	current = next
	return prev
}

func active() *store {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Close 关闭 Redis 连接
func Close() error {
	prev := swap(nil)
	if prev == nil {
		return nil
	}
	return prev.client.Close()
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return active() != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	if s := active(); s != nil {
		return s.client
	}
	return nil
}

// GetJSON 读取 JSON 缓存，未启用或未命中时返回 false
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	s := active()
	if s == nil {
		return false, nil
	}
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s := active()
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	s := active()
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

// BuildKey 拼接带前缀的缓存键
func BuildKey(key string) string {
	if s := active(); s != nil {
		return s.key(key)
	}
	return joinKey(defaultPrefix, key)
}

func (s *store) key(key string) string {
	return joinKey(s.prefix, key)
}

func joinKey(prefix, key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return prefix
	}
	return prefix + ":" + trimmed
}
