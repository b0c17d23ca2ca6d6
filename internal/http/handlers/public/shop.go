package public

import (
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListShops 营业中门店列表
func (h *Handler) ListShops(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	shops, total, err := h.ShopService.ListPublic(repository.ShopListFilter{
		Page:     page,
		PageSize: pageSize,
		City:     strings.TrimSpace(c.Query("city")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.shop_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, shops, response.BuildPagination(page, pageSize, total))
}

// GetShop 门店详情
func (h *Handler) GetShop(c *gin.Context) {
	shop, err := h.ShopService.GetPublic(c.Param("id"))
	if err != nil {
		respondShopReadError(c, err, "error.shop_fetch_failed")
		return
	}
	response.Success(c, shop)
}

// GetShopMenu 门店菜单（分类、可售商品与自定义模板）
func (h *Handler) GetShopMenu(c *gin.Context) {
	menu, err := h.ShopService.GetMenu(c.Param("id"))
	if err != nil {
		respondShopReadError(c, err, "error.menu_fetch_failed")
		return
	}
	response.Success(c, menu)
}

// ListShopRewards 门店可兑换奖励
func (h *Handler) ListShopRewards(c *gin.Context) {
	shop, err := h.ShopService.GetPublic(c.Param("id"))
	if err != nil {
		respondShopReadError(c, err, "error.reward_fetch_failed")
		return
	}
	rewards, err := h.RewardService.ListActive(shop.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.reward_fetch_failed", err)
		return
	}
	response.Success(c, rewards)
}

// ListGlobalRewards 平台通用积分可兑换奖励
func (h *Handler) ListGlobalRewards(c *gin.Context) {
	rewards, err := h.RewardService.ListActive("")
	if err != nil {
		respondError(c, response.CodeInternal, "error.reward_fetch_failed", err)
		return
	}
	response.Success(c, rewards)
}
