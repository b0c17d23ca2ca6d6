package service

import (
	"context"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/cache"
	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/repository"
)

// ShopService 门店服务
type ShopService struct {
	shopRepo repository.ShopRepository
	menuRepo repository.MenuRepository
	cacheTTL time.Duration
}

// ShopMenu 门店菜单视图
type ShopMenu struct {
	Shop       *models.Shop                   `json:"shop"`
	Categories []models.MenuCategory          `json:"categories"`
	Items      []models.MenuItem              `json:"items"`
	Templates  []models.CustomizationTemplate `json:"customization_templates"`
}

// LoyaltySettingsInput 门店积分配置更新输入，nil 字段保持不变
type LoyaltySettingsInput struct {
	PointsPerCurrencyUnit       *int64
	ParticipatesInGlobalLoyalty *bool
}

// NewShopService 创建门店服务
func NewShopService(shopRepo repository.ShopRepository, menuRepo repository.MenuRepository, cacheTTL time.Duration) *ShopService {
	return &ShopService{
		shopRepo: shopRepo,
		menuRepo: menuRepo,
		cacheTTL: cacheTTL,
	}
}

// ListPublic 查询可下单门店
func (s *ShopService) ListPublic(filter repository.ShopListFilter) ([]models.Shop, int64, error) {
	filter.Status = constants.ShopStatusActive
	filter.OwnerID = ""
	return s.shopRepo.List(filter)
}

// ListAdmin 管理端查询门店
func (s *ShopService) ListAdmin(filter repository.ShopListFilter) ([]models.Shop, int64, error) {
	return s.shopRepo.List(filter)
}

// Get 获取门店
func (s *ShopService) Get(id string) (*models.Shop, error) {
	shop, err := s.shopRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// GetPublic 获取对外可见门店，非营业状态视为不存在
func (s *ShopService) GetPublic(id string) (*models.Shop, error) {
	shop, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if shop.Status != constants.ShopStatusActive {
		return nil, ErrShopNotFound
	}
	return shop, nil
}

// GetManaged 获取可处理订单的门店（店主、所属店员或管理员）
func (s *ShopService) GetManaged(shopID string, actor Actor) (*models.Shop, error) {
	shop, err := s.Get(shopID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageShop(shop) {
		return nil, ErrForbidden
	}
	return shop, nil
}

// GetMenu 获取门店菜单
func (s *ShopService) GetMenu(shopID string) (*ShopMenu, error) {
	shop, err := s.GetPublic(shopID)
	if err != nil {
		return nil, err
	}
	categories, err := s.menuRepo.ListCategories(shop.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.menuRepo.ListItems(shop.ID, true)
	if err != nil {
		return nil, err
	}
	templates, err := s.menuRepo.ListTemplates(shop.ID)
	if err != nil {
		return nil, err
	}
	return &ShopMenu{
		Shop:       shop,
		Categories: categories,
		Items:      items,
		Templates:  templates,
	}, nil
}

// GetLoyaltyConfig 获取门店积分配置（优先读缓存）
func (s *ShopService) GetLoyaltyConfig(ctx context.Context, shopID string) (*models.LoyaltyConfig, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, ErrShopNotFound
	}
	cached, err := cache.GetShopLoyaltyConfig(ctx, shopID)
	if err != nil {
		logger.Warnw("shop_loyalty_cache_get_failed", "shop_id", shopID, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	shop, err := s.Get(shopID)
	if err != nil {
		return nil, err
	}
	cfg := shop.LoyaltyConfig()
	if err := cache.SetShopLoyaltyConfig(ctx, &cfg, s.cacheTTL); err != nil {
		logger.Warnw("shop_loyalty_cache_set_failed", "shop_id", shopID, "error", err)
	}
	return &cfg, nil
}

// UpdateLoyaltySettings 更新门店积分配置
func (s *ShopService) UpdateLoyaltySettings(ctx context.Context, shopID string, input LoyaltySettingsInput) (*models.LoyaltyConfig, error) {
	shop, err := s.Get(shopID)
	if err != nil {
		return nil, err
	}
	rate := shop.LoyaltyPointsPerDollar
	if input.PointsPerCurrencyUnit != nil {
		rate = *input.PointsPerCurrencyUnit
	}
	if rate < 0 {
		return nil, ErrInvalidLoyaltySettings
	}
	participates := shop.ParticipatesInGlobalLoyalty
	if input.ParticipatesInGlobalLoyalty != nil {
		participates = *input.ParticipatesInGlobalLoyalty
	}
	updated, err := s.shopRepo.UpdateLoyaltySettings(shop.ID, rate, participates)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrShopNotFound
	}
	if err := cache.InvalidateShopLoyaltyConfig(ctx, shop.ID); err != nil {
		logger.Warnw("shop_loyalty_cache_invalidate_failed", "shop_id", shop.ID, "error", err)
	}
	logger.Infow("shop_loyalty_settings_updated",
		"shop_id", shop.ID,
		"points_per_currency_unit", rate,
		"participates_in_global_loyalty", participates,
	)
	return &models.LoyaltyConfig{
		ShopID:                      shop.ID,
		PointsPerCurrencyUnit:       rate,
		ParticipatesInGlobalLoyalty: participates,
	}, nil
}

// UpdateStatus 审核或停用门店，停用即软删除
func (s *ShopService) UpdateStatus(shopID, status string) (*models.Shop, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case constants.ShopStatusActive, constants.ShopStatusPendingApproval, constants.ShopStatusSuspended:
	default:
		return nil, ErrInvalidShopStatus
	}
	updated, err := s.shopRepo.UpdateStatus(strings.TrimSpace(shopID), status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrShopNotFound
	}
	logger.Infow("shop_status_updated", "shop_id", shopID, "status", status)
	return s.Get(shopID)
}

// GetOwned 获取当前店主的门店，管理员不受归属限制
func (s *ShopService) GetOwned(shopID string, actor Actor) (*models.Shop, error) {
	shop, err := s.Get(shopID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsShop(shop) {
		return nil, ErrForbidden
	}
	return shop, nil
}
