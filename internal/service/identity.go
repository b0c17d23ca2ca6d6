package service

import (
	"strings"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/models"
)

// Actor 已认证的调用方（由托管认证平台签发的令牌解析而来）
type Actor struct {
	UserID string
	Role   string
	// ShopID 店员所属门店，仅 shop_worker 使用
	ShopID string
}

// IsAdmin 是否为平台管理员
func (a Actor) IsAdmin() bool {
	return a.Role == constants.RoleAdmin
}

// OwnsShop 是否为门店店主（管理员视为拥有全部门店）
func (a Actor) OwnsShop(shop *models.Shop) bool {
	if shop == nil || strings.TrimSpace(a.UserID) == "" {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	return a.Role == constants.RoleShopOwner && shop.OwnerID == a.UserID
}

// CanManageShop 是否可处理门店订单（店主、所属店员或管理员）
func (a Actor) CanManageShop(shop *models.Shop) bool {
	if a.OwnsShop(shop) {
		return true
	}
	return shop != nil && a.Role == constants.RoleShopWorker && a.ShopID != "" && a.ShopID == shop.ID
}

// IsKnownRole 判断角色是否有效
func IsKnownRole(role string) bool {
	return constants.IsAppRole(role)
}
