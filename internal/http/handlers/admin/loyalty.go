package admin

import (
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/repository"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AdjustPointsRequest 积分调整请求，delta 为正入账、为负扣减
type AdjustPointsRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ShopID    string `json:"shop_id"`
	Delta     int64  `json:"delta" binding:"required"`
	Reference string `json:"reference"`
	Reason    string `json:"reason" binding:"max=500"`
}

// ExpirePointsRequest 积分过期请求
type ExpirePointsRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ShopID    string `json:"shop_id"`
	Points    int64  `json:"points" binding:"required,min=1"`
	Reference string `json:"reference"`
	Reason    string `json:"reason" binding:"max=500"`
}

var ledgerWriteErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidLedgerEntry, Code: response.CodeBadRequest, Key: "error.loyalty_entry_invalid"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeUnprocessable, Key: "error.loyalty_insufficient"},
	{Target: service.ErrLedgerUnavailable, Code: response.CodeServiceUnavailable, Key: "error.loyalty_unavailable"},
}

// AdjustPoints 人工调整积分
func (h *Handler) AdjustPoints(c *gin.Context) {
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	txn, balance, err := h.LoyaltyService.AdjustPoints(service.LoyaltyAdjustInput{
		UserID:    req.UserID,
		ShopID:    req.ShopID,
		Delta:     req.Delta,
		Reference: req.Reference,
		Reason:    req.Reason,
	})
	if err != nil {
		handlershared.RespondMapped(c, err, ledgerWriteErrorRules, response.CodeInternal, "error.loyalty_adjust_failed")
		return
	}
	actorID := ""
	if actor, ok := c.Get(handlershared.ContextKeyActor); ok {
		if a, typeOK := actor.(service.Actor); typeOK {
			actorID = a.UserID
		}
	}
	handlershared.RequestLog(c).Infow("admin_loyalty_points_adjusted",
		"operator_id", actorID,
		"user_id", req.UserID,
		"shop_id", req.ShopID,
		"delta", req.Delta,
		"balance", balance,
	)
	response.Success(c, gin.H{"transaction": txn, "balance": balance})
}

// ExpirePoints 过期积分，最多扣减至当前余额
func (h *Handler) ExpirePoints(c *gin.Context) {
	var req ExpirePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	txn, balance, err := h.LoyaltyService.ExpirePoints(service.LoyaltyExpireInput{
		UserID:    req.UserID,
		ShopID:    req.ShopID,
		Points:    req.Points,
		Reference: req.Reference,
		Reason:    req.Reason,
	})
	if err != nil {
		handlershared.RespondMapped(c, err, ledgerWriteErrorRules, response.CodeInternal, "error.loyalty_adjust_failed")
		return
	}
	response.Success(c, gin.H{"transaction": txn, "balance": balance})
}

// ReconcileLedger 对账：比较余额与流水合计
func (h *Handler) ReconcileLedger(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.LoyaltyService.Reconcile(userID, strings.TrimSpace(c.Query("shop_id")))
	if err != nil {
		handlershared.RespondMapped(c, err, ledgerWriteErrorRules, response.CodeInternal, "error.loyalty_reconcile_failed")
		return
	}
	if !result.Consistent {
		handlershared.RequestLog(c).Warnw("admin_loyalty_ledger_mismatch",
			"user_id", result.UserID,
			"shop_id", result.ShopID,
			"difference", result.Difference,
		)
		msg := i18n.Sprintf(i18n.ResolveLocale(c), "message.loyalty_ledger_mismatch", result.Difference)
		response.SuccessWithMsg(c, msg, result)
		return
	}
	response.Success(c, result)
}

// GlobalStats 平台通用积分统计
func (h *Handler) GlobalStats(c *gin.Context) {
	stats, err := h.LoyaltyService.Stats("")
	if err != nil {
		respondError(c, response.CodeInternal, "error.loyalty_fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// ListTransactions 任意用户积分流水
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.LoyaltyTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   strings.TrimSpace(c.Query("user_id")),
		OrderID:  strings.TrimSpace(c.Query("order_id")),
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

// RetryLoyaltyAward 手动补发已完成订单积分（幂等）
func (h *Handler) RetryLoyaltyAward(c *gin.Context) {
	if err := h.OrderService.RetryLoyaltyAward(c.Request.Context(), c.Param("id")); err != nil {
		handlershared.RespondMapped(c, err, []handlershared.MappedError{
			{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
			{Target: service.ErrShopNotFound, Code: response.CodeNotFound, Key: "error.shop_not_found"},
			{Target: service.ErrLedgerUnavailable, Code: response.CodeServiceUnavailable, Key: "error.loyalty_unavailable"},
		}, response.CodeInternal, "error.loyalty_adjust_failed")
		return
	}
	response.Success(c, nil)
}
