package shared

import (
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ContextKeyActor 认证中间件写入的调用方身份
const ContextKeyActor = "actor"

// GetActor 读取当前调用方身份，缺失时直接返回 401。
func GetActor(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(ContextKeyActor)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return service.Actor{}, false
	}
	actor, ok := value.(service.Actor)
	if !ok || actor.UserID == "" {
		RespondError(c, response.CodeUnauthorized, "error.token_invalid", nil)
		return service.Actor{}, false
	}
	return actor, true
}
