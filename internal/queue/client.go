package queue

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 状态通知等普通任务
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 积分补发等高优先级任务
	CriticalQueue = constants.QueueCritical

	notifyMaxRetry       = 3
	notifyTimeout        = 30 * time.Second
	awardRetryDefaultMax = 5
	awardRetryTimeout    = time.Minute
	defaultConcurrency   = 10
)

// Client 订单与积分异步任务投递，未启用时所有投递静默跳过
type Client struct {
	inner *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(RedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueOrderStatusNotify 投递订单状态变更通知
func (c *Client) EnqueueOrderStatusNotify(payload OrderStatusNotifyPayload) error {
	task, err := NewOrderStatusNotifyTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task,
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(notifyMaxRetry),
		asynq.Timeout(notifyTimeout),
	)
}

// EnqueueLoyaltyAwardRetry 延迟投递积分补发，同一订单只保留一个待执行任务
func (c *Client) EnqueueLoyaltyAwardRetry(payload LoyaltyAwardRetryPayload, delay time.Duration, maxRetry int) error {
	task, err := NewLoyaltyAwardRetryTask(payload)
	if err != nil {
		return err
	}
	if maxRetry <= 0 {
		maxRetry = awardRetryDefaultMax
	}
	err = c.enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.ProcessIn(max(delay, 0)),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(awardRetryTimeout),
		asynq.TaskID(LoyaltyAwardRetryTaskID(payload.OrderID)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debugw("loyalty_award_retry_already_queued", "order_id", payload.OrderID)
		return nil
	}
	return err
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	info, err := c.inner.Enqueue(task, opts...)
	if err != nil {
		return err
	}
	logger.Debugw("queue_task_enqueued", "task_type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	return nil
}

// BuildServerConfig 生成消费端连接与并发配置，积分补发队列权重更高
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1, CriticalQueue: 2},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return RedisOpt(cfg), serverCfg
}

// RedisOpt 队列所用的 Redis 连接参数
func RedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
