package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/models"
)

const defaultShopLoyaltyTTL = 5 * time.Minute

func shopLoyaltyKey(shopID string) string {
	return fmt.Sprintf("shop:loyalty:%s", strings.TrimSpace(shopID))
}

// GetShopLoyaltyConfig 读取门店积分配置缓存
func GetShopLoyaltyConfig(ctx context.Context, shopID string) (*models.LoyaltyConfig, error) {
	if strings.TrimSpace(shopID) == "" {
		return nil, nil
	}
	var cfg models.LoyaltyConfig
	hit, err := GetJSON(ctx, shopLoyaltyKey(shopID), &cfg)
	if err != nil || !hit {
		return nil, err
	}
	return &cfg, nil
}

// SetShopLoyaltyConfig 写入门店积分配置缓存，ttl 非正数时使用默认值
func SetShopLoyaltyConfig(ctx context.Context, cfg *models.LoyaltyConfig, ttl time.Duration) error {
	if cfg == nil || strings.TrimSpace(cfg.ShopID) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultShopLoyaltyTTL
	}
	return SetJSON(ctx, shopLoyaltyKey(cfg.ShopID), cfg, ttl)
}

// InvalidateShopLoyaltyConfig 删除门店积分配置缓存
func InvalidateShopLoyaltyConfig(ctx context.Context, shopID string) error {
	if strings.TrimSpace(shopID) == "" {
		return nil
	}
	return Del(ctx, shopLoyaltyKey(shopID))
}
