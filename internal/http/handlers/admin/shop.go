package admin

import (
	"strings"

	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/repository"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateShopStatusRequest 门店审核请求
type UpdateShopStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListShops 全部门店（可按状态过滤）
func (h *Handler) ListShops(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	shops, total, err := h.ShopService.ListAdmin(repository.ShopListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OwnerID:  strings.TrimSpace(c.Query("owner_id")),
		City:     strings.TrimSpace(c.Query("city")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.shop_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, shops, response.BuildPagination(page, pageSize, total))
}

// UpdateShopStatus 审核、停用或恢复门店
func (h *Handler) UpdateShopStatus(c *gin.Context) {
	var req UpdateShopStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	shop, err := h.ShopService.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		handlershared.RespondMapped(c, err, []handlershared.MappedError{
			{Target: service.ErrInvalidShopStatus, Code: response.CodeBadRequest, Key: "error.shop_status_invalid"},
			{Target: service.ErrShopNotFound, Code: response.CodeNotFound, Key: "error.shop_not_found"},
		}, response.CodeInternal, "error.shop_update_failed")
		return
	}
	response.Success(c, shop)
}
