package admin

import (
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 平台管理接口处理器入口
// 说明：该处理器仅用于管理端 API。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
