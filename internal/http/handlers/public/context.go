package public

import (
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

func getActor(c *gin.Context) (service.Actor, bool) {
	return handlershared.GetActor(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []handlershared.MappedError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMapped(c, err, rules, fallbackCode, fallbackKey)
}
