package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loyalcup/backend/internal/authz"
	"github.com/loyalcup/backend/internal/cache"
	"github.com/loyalcup/backend/internal/config"
	adminhandlers "github.com/loyalcup/backend/internal/http/handlers/admin"
	ownerhandlers "github.com/loyalcup/backend/internal/http/handlers/owner"
	publichandlers "github.com/loyalcup/backend/internal/http/handlers/public"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按顾客/门店/平台分组）
	publicHandler := publichandlers.New(c)
	ownerHandler := ownerhandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lc"
	}
	redisClient := cache.Client()
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	authRequired := AuthMiddleware(cfg.Auth)
	roleGate := RoleGateMiddleware(c.AuthzService)
	writeLimit := RateLimitMiddleware(redisClient, writeRule, KeyByActor)

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/shops", publicHandler.ListShops)
		apiV1.GET("/shops/:id", publicHandler.GetShop)
		apiV1.GET("/shops/:id/menu", publicHandler.GetShopMenu)
		apiV1.GET("/shops/:id/rewards", publicHandler.ListShopRewards)
		apiV1.GET("/rewards/global", publicHandler.ListGlobalRewards)

		authorized := apiV1.Group("")
		authorized.Use(authRequired, roleGate)
		{
			// 顾客订单
			authorized.POST("/orders/preview", publicHandler.PreviewOrder)
			authorized.POST("/orders", writeLimit, publicHandler.CreateOrder)
			authorized.GET("/orders", publicHandler.ListOrders)
			authorized.GET("/orders/:id", publicHandler.GetOrder)
			authorized.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			// 顾客积分
			authorized.GET("/loyalty/balances", publicHandler.ListBalances)
			authorized.GET("/loyalty/balances/global", publicHandler.GetGlobalBalance)
			authorized.GET("/loyalty/balances/:shop_id", publicHandler.GetShopBalance)
			authorized.GET("/loyalty/transactions", publicHandler.ListTransactions)
			authorized.POST("/loyalty/redeem", writeLimit, publicHandler.RedeemReward)

			// 门店端
			shop := authorized.Group("/owner/shops/:shop_id")
			{
				shop.GET("/orders", ownerHandler.ListOrders)
				shop.GET("/orders/summary", ownerHandler.OrderSummary)
				shop.GET("/orders/:id", ownerHandler.GetOrder)
				shop.PUT("/orders/:id/status", ownerHandler.UpdateOrderStatus)
				shop.GET("/loyalty/settings", ownerHandler.GetLoyaltySettings)
				shop.PUT("/loyalty/settings", ownerHandler.UpdateLoyaltySettings)
				shop.GET("/loyalty/stats", ownerHandler.LoyaltyStats)
				shop.GET("/rewards", ownerHandler.ListRewards)
				shop.POST("/rewards", ownerHandler.CreateReward)
				shop.PUT("/rewards/:reward_id", ownerHandler.UpdateReward)
				shop.DELETE("/rewards/:reward_id", ownerHandler.DeactivateReward)
			}

			// 平台管理
			admin := authorized.Group("/admin")
			{
				admin.GET("/shops", adminHandler.ListShops)
				admin.PUT("/shops/:id/status", adminHandler.UpdateShopStatus)

				admin.POST("/loyalty/adjust", adminHandler.AdjustPoints)
				admin.POST("/loyalty/expire", adminHandler.ExpirePoints)
				admin.GET("/loyalty/reconcile", adminHandler.ReconcileLedger)
				admin.GET("/loyalty/global-stats", adminHandler.GlobalStats)
				admin.GET("/loyalty/transactions", adminHandler.ListTransactions)
				admin.POST("/orders/:id/loyalty-award", adminHandler.RetryLoyaltyAward)

				admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
				admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				admin.GET("/authz/permissions", func(ctx *gin.Context) {
					response.Success(ctx, buildPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 汇总需要授权的路由，供配置角色策略使用
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") || isPublicRoute(method, item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func isPublicRoute(method, path string) bool {
	if method != "GET" {
		return false
	}
	return strings.HasPrefix(path, "/api/v1/shops") || strings.HasPrefix(path, "/api/v1/rewards")
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	switch segments[0] {
	case "admin":
		if len(segments) > 1 {
			return "admin." + segments[1]
		}
		return "admin"
	case "owner":
		if len(segments) > 3 {
			return "owner." + segments[3]
		}
		return "owner"
	default:
		return segments[0]
	}
}
