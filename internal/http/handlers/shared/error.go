package shared

import (
	"errors"

	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondMapped 按映射表返回业务错误，未命中时记录原始错误并返回兜底响应。
func RespondMapped(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackKey string) {
	if appErr, ok := response.AsAppError(err); ok && appErr.Key != "" {
		RespondError(c, appErr.Code, appErr.Key, appErr.Err)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RequestLog(c).Debugw("handler_mapped_error", "code", rule.Code, "key", rule.Key, "error", err)
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedErrors 合并多组映射规则，前者优先。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
