package owner

import (
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/provider"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 门店端接口处理器入口
// 说明：路由层只校验角色，门店归属在这里按调用方身份校验。
type Handler struct {
	*provider.Container
}

// New 创建门店端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

var shopAccessErrorRules = []handlershared.MappedError{
	{Target: service.ErrShopNotFound, Code: response.CodeNotFound, Key: "error.shop_not_found"},
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.shop_scope_mismatch"},
}

// managedShop 店主、本店店员或管理员可访问
func (h *Handler) managedShop(c *gin.Context) (*models.Shop, service.Actor, bool) {
	actor, ok := handlershared.GetActor(c)
	if !ok {
		return nil, actor, false
	}
	shop, err := h.ShopService.GetManaged(c.Param("shop_id"), actor)
	if err != nil {
		handlershared.RespondMapped(c, err, shopAccessErrorRules, response.CodeInternal, "error.shop_fetch_failed")
		return nil, actor, false
	}
	return shop, actor, true
}

// ownedShop 仅店主或管理员可访问
func (h *Handler) ownedShop(c *gin.Context) (*models.Shop, service.Actor, bool) {
	actor, ok := handlershared.GetActor(c)
	if !ok {
		return nil, actor, false
	}
	shop, err := h.ShopService.GetOwned(c.Param("shop_id"), actor)
	if err != nil {
		handlershared.RespondMapped(c, err, shopAccessErrorRules, response.CodeInternal, "error.shop_fetch_failed")
		return nil, actor, false
	}
	return shop, actor, true
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
