package owner

import (
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/repository"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 订单状态推进请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

var orderStatusErrorRules = []handlershared.MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrInvalidOrderStatus, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
	{Target: service.ErrInvalidTransition, Code: response.CodeConflict, Key: "error.order_transition_invalid"},
	{Target: service.ErrConcurrencyConflict, Code: response.CodeConflict, Key: "error.order_conflict"},
}

// ListOrders 门店订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	shop, _, ok := h.managedShop(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.OrderListFilter{Page: page, PageSize: pageSize}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, valid := service.NormalizeOrderStatus(raw)
		if !valid {
			respondError(c, response.CodeBadRequest, "error.order_status_invalid", nil)
			return
		}
		filter.Status = status
	}
	orders, total, err := h.OrderService.ListForShop(shop.ID, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// OrderSummary 门店订单汇总
func (h *Handler) OrderSummary(c *gin.Context) {
	shop, _, ok := h.managedShop(c)
	if !ok {
		return
	}
	summary, err := h.OrderService.ShopSummary(shop.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Success(c, summary)
}

// GetOrder 门店订单详情，附带可推进的下一状态
func (h *Handler) GetOrder(c *gin.Context) {
	shop, _, ok := h.managedShop(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetForShop(shop.ID, c.Param("id"))
	if err != nil {
		handlershared.RespondMapped(c, err, orderStatusErrorRules, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"order":         order,
		"next_statuses": service.AllowedNextStatuses(order.Status),
	})
}

// UpdateOrderStatus 推进订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	shop, actor, ok := h.managedShop(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), service.UpdateOrderStatusInput{
		ShopID:  shop.ID,
		OrderID: c.Param("id"),
		Status:  req.Status,
	})
	if err != nil {
		handlershared.RespondMapped(c, err, orderStatusErrorRules, response.CodeInternal, "error.order_update_failed")
		return
	}
	handlershared.RequestLog(c).Infow("owner_order_status_updated",
		"shop_id", shop.ID,
		"order_id", order.ID,
		"status", order.Status,
		"actor_id", actor.UserID,
	)
	response.Success(c, order)
}
