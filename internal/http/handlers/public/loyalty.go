package public

import (
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// RedeemRequest 兑换请求
type RedeemRequest struct {
	RewardID string `json:"reward_id" binding:"required"`
}

// BalanceView 单个作用域余额
type BalanceView struct {
	ShopID string `json:"shop_id,omitempty"`
	Points int64  `json:"points"`
}

// ListBalances 我的全部积分余额
func (h *Handler) ListBalances(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	balances, err := h.LoyaltyService.ListBalances(actor.UserID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.loyalty_fetch_failed", err)
		return
	}
	response.Success(c, balances)
}

// GetGlobalBalance 平台通用积分余额
func (h *Handler) GetGlobalBalance(c *gin.Context) {
	h.respondBalance(c, "")
}

// GetShopBalance 门店积分余额
func (h *Handler) GetShopBalance(c *gin.Context) {
	shopID := strings.TrimSpace(c.Param("shop_id"))
	if shopID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	h.respondBalance(c, shopID)
}

func (h *Handler) respondBalance(c *gin.Context, shopID string) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	points, err := h.LoyaltyService.GetBalance(actor.UserID, shopID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.loyalty_fetch_failed", err)
		return
	}
	response.Success(c, BalanceView{ShopID: shopID, Points: points})
}

// ListTransactions 我的积分流水；scope=global 仅看通用积分，shop_id 指定门店
func (h *Handler) ListTransactions(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.LoyaltyTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   actor.UserID,
		Type:     strings.TrimSpace(c.Query("type")),
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("scope")), "global") {
		global := ""
		filter.ShopID = &global
	} else if shopID := strings.TrimSpace(c.Query("shop_id")); shopID != "" {
		filter.ShopID = &shopID
	}
	txns, total, err := h.LoyaltyService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.loyalty_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, txns, response.BuildPagination(page, pageSize, total))
}

// RedeemReward 兑换奖励
func (h *Handler) RedeemReward(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.LoyaltyService.RedeemReward(actor.UserID, strings.TrimSpace(req.RewardID))
	if err != nil {
		respondLoyaltyRedeemError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.reward_redeemed"), result)
}
