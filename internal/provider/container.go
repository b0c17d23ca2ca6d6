package provider

import (
	"time"

	"github.com/loyalcup/backend/internal/authz"
	"github.com/loyalcup/backend/internal/cache"
	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/events"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/queue"
	"github.com/loyalcup/backend/internal/repository"
	"github.com/loyalcup/backend/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config         *config.Config
	QueueClient    *queue.Client
	EventPublisher events.Publisher

	// Repositories
	ShopRepo    repository.ShopRepository
	MenuRepo    repository.MenuRepository
	OrderRepo   repository.OrderRepository
	LoyaltyRepo repository.LoyaltyRepository
	RewardRepo  repository.RewardRepository

	// Services
	AuthzService   *authz.Service
	ShopService    *service.ShopService
	LoyaltyService *service.LoyaltyService
	RewardService  *service.RewardService
	OrderService   *service.OrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	// 初始化事件广播
	publisher, err := events.New(&cfg.Events)
	if err != nil {
		logger.Errorw("provider_init_event_publisher_failed", "error", err)
		publisher = events.NoopPublisher{}
	}

	c := NewContainerWithDB(cfg, models.DB, queueClient, publisher)
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	return c
}

// NewContainerWithDB 基于指定数据库装配仓储与服务
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client, publisher events.Publisher) *Container {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	c := &Container{
		Config:         cfg,
		QueueClient:    queueClient,
		EventPublisher: publisher,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices(db)

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.ShopRepo = repository.NewShopRepository(db)
	c.MenuRepo = repository.NewMenuRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.LoyaltyRepo = repository.NewLoyaltyRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService

	taxRate, err := service.ParseTaxRate(c.Config.Order.TaxRate)
	if err != nil {
		logger.Errorw("provider_invalid_tax_rate", "tax_rate", c.Config.Order.TaxRate, "error", err)
		panic(err)
	}

	c.ShopService = service.NewShopService(c.ShopRepo, c.MenuRepo, secondsOr(c.Config.Loyalty.ShopConfigCacheSeconds, 300))
	c.LoyaltyService = service.NewLoyaltyService(c.LoyaltyRepo, c.RewardRepo, c.ShopService)
	c.RewardService = service.NewRewardService(c.RewardRepo)

	var taskQueue service.OrderTaskQueue
	if c.QueueClient != nil {
		taskQueue = c.QueueClient
	}
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ShopRepo,
		c.MenuRepo,
		c.LoyaltyService,
		taskQueue,
		service.OrderServiceOptions{
			TaxRate:         taxRate,
			AwardRetryDelay: secondsOr(c.Config.Loyalty.AwardRetryDelaySeconds, 30),
			AwardRetryMax:   c.Config.Loyalty.AwardRetryMax,
		},
	)
}

// Close 释放队列与事件连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			logger.Warnw("provider_close_event_publisher_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}

func secondsOr(value int, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
