package owner

import (
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// LoyaltySettingsRequest 门店积分设置请求，未传字段保持不变
type LoyaltySettingsRequest struct {
	PointsPerCurrencyUnit       *int64 `json:"points_per_currency_unit"`
	ParticipatesInGlobalLoyalty *bool  `json:"participates_in_global_loyalty"`
}

// RewardRequest 奖励创建/更新请求
type RewardRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PointsRequired *int64  `json:"points_required"`
	IsActive       *bool   `json:"is_active"`
}

func (r RewardRequest) toInput() service.RewardInput {
	return service.RewardInput{
		Name:           r.Name,
		Description:    r.Description,
		PointsRequired: r.PointsRequired,
		IsActive:       r.IsActive,
	}
}

var rewardErrorRules = []handlershared.MappedError{
	{Target: service.ErrRewardNotFound, Code: response.CodeNotFound, Key: "error.reward_not_found"},
	{Target: service.ErrInvalidReward, Code: response.CodeBadRequest, Key: "error.reward_invalid"},
}

// GetLoyaltySettings 门店积分设置
func (h *Handler) GetLoyaltySettings(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	response.Success(c, shop.LoyaltyConfig())
}

// UpdateLoyaltySettings 更新门店积分设置
func (h *Handler) UpdateLoyaltySettings(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	var req LoyaltySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	cfg, err := h.ShopService.UpdateLoyaltySettings(c.Request.Context(), shop.ID, service.LoyaltySettingsInput{
		PointsPerCurrencyUnit:       req.PointsPerCurrencyUnit,
		ParticipatesInGlobalLoyalty: req.ParticipatesInGlobalLoyalty,
	})
	if err != nil {
		handlershared.RespondMapped(c, err, []handlershared.MappedError{
			{Target: service.ErrInvalidLoyaltySettings, Code: response.CodeBadRequest, Key: "error.loyalty_settings_invalid"},
			{Target: service.ErrShopNotFound, Code: response.CodeNotFound, Key: "error.shop_not_found"},
		}, response.CodeInternal, "error.loyalty_settings_failed")
		return
	}
	response.Success(c, cfg)
}

// LoyaltyStats 门店积分统计
func (h *Handler) LoyaltyStats(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	stats, err := h.LoyaltyService.Stats(shop.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.loyalty_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// ListRewards 门店全部奖励（含已停用）
func (h *Handler) ListRewards(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	rewards, err := h.RewardService.ListForShop(shop.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.reward_fetch_failed", err)
		return
	}
	response.Success(c, rewards)
}

// CreateReward 新增奖励
func (h *Handler) CreateReward(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reward, err := h.RewardService.Create(shop.ID, req.toInput())
	if err != nil {
		handlershared.RespondMapped(c, err, rewardErrorRules, response.CodeInternal, "error.reward_save_failed")
		return
	}
	response.Created(c, reward)
}

// UpdateReward 更新奖励
func (h *Handler) UpdateReward(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reward, err := h.RewardService.Update(shop.ID, c.Param("reward_id"), req.toInput())
	if err != nil {
		handlershared.RespondMapped(c, err, rewardErrorRules, response.CodeInternal, "error.reward_save_failed")
		return
	}
	response.Success(c, reward)
}

// DeactivateReward 停用奖励，历史兑换流水保留引用
func (h *Handler) DeactivateReward(c *gin.Context) {
	shop, _, ok := h.ownedShop(c)
	if !ok {
		return
	}
	if err := h.RewardService.Deactivate(shop.ID, c.Param("reward_id")); err != nil {
		handlershared.RespondMapped(c, err, rewardErrorRules, response.CodeInternal, "error.reward_save_failed")
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.reward_deactivated"), nil)
}
