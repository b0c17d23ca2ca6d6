package public

import (
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/repository"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	MenuItemID     string                           `json:"menu_item_id" binding:"required"`
	Quantity       int                              `json:"quantity" binding:"required,min=1"`
	Customizations []service.CustomizationSelection `json:"customizations"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	ShopID string             `json:"shop_id" binding:"required"`
	Items  []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes  string             `json:"notes" binding:"max=500"`
}

func (r CreateOrderRequest) itemInputs() []service.OrderItemInput {
	items := make([]service.OrderItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, service.OrderItemInput{
			MenuItemID:     strings.TrimSpace(item.MenuItemID),
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
		})
	}
	return items
}

// PreviewOrder 订单金额与积分预览
func (h *Handler) PreviewOrder(c *gin.Context) {
	if _, ok := getActor(c); !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	quote, err := h.OrderService.PreviewOrder(strings.TrimSpace(req.ShopID), req.itemInputs())
	if err != nil {
		respondOrderPricingError(c, err, "error.order_create_failed")
		return
	}
	response.Success(c, quote)
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		CustomerID: actor.UserID,
		ShopID:     strings.TrimSpace(req.ShopID),
		Items:      req.itemInputs(),
		Notes:      req.Notes,
	})
	if err != nil {
		respondOrderPricingError(c, err, "error.order_create_failed")
		return
	}
	response.Created(c, order)
}

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	filter, ok := orderListFilterFromQuery(c)
	if !ok {
		return
	}
	orders, total, err := h.OrderService.ListForCustomer(actor.UserID, filter)
	if err != nil {
		respondOrderReadError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// GetOrder 我的订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetForCustomer(actor.UserID, c.Param("id"))
	if err != nil {
		respondOrderReadError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消待接单订单
func (h *Handler) CancelOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), actor.UserID, c.Param("id"))
	if err != nil {
		respondOrderCancelError(c, err)
		return
	}
	response.SuccessWithMsg(c, i18n.T(i18n.ResolveLocale(c), "message.order_cancelled"), order)
}

func orderListFilterFromQuery(c *gin.Context) (repository.OrderListFilter, bool) {
	page, pageSize := handlershared.QueryPagination(c)
	filter := repository.OrderListFilter{Page: page, PageSize: pageSize}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, ok := service.NormalizeOrderStatus(raw)
		if !ok {
			respondError(c, response.CodeBadRequest, "error.order_status_invalid", nil)
			return filter, false
		}
		filter.Status = status
	}
	return filter, true
}
