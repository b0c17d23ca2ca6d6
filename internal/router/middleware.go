package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/authz"
	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/constants"
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/i18n"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-Request-ID",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// BaaSClaims 托管认证平台签发的访问令牌声明
// 应用角色与店员所属门店放在 app_metadata，由平台侧管理
type BaaSClaims struct {
	Email       string          `json:"email,omitempty"`
	Role        string          `json:"role,omitempty"`
	AppMetadata BaaSAppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// BaaSAppMetadata 应用自定义元数据
type BaaSAppMetadata struct {
	Role   string `json:"role,omitempty"`
	ShopID string `json:"shop_id,omitempty"`
}

// ActorFromClaims 由令牌声明构造调用方身份
func ActorFromClaims(claims *BaaSClaims, defaultRole string) service.Actor {
	if claims == nil {
		return service.Actor{}
	}
	role := strings.ToLower(strings.TrimSpace(claims.AppMetadata.Role))
	if !service.IsKnownRole(role) {
		role = strings.ToLower(strings.TrimSpace(claims.Role))
	}
	if !service.IsKnownRole(role) {
		role = strings.ToLower(strings.TrimSpace(defaultRole))
	}
	if !service.IsKnownRole(role) {
		role = constants.RoleCustomer
	}
	return service.Actor{
		UserID: strings.TrimSpace(claims.Subject),
		Role:   role,
		ShopID: strings.TrimSpace(claims.AppMetadata.ShopID),
	}
}

// AuthMiddleware 校验托管认证平台签发的 Bearer 令牌并写入调用方身份
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(cfg.Audience); audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(options...)

	return func(c *gin.Context) {
		if len(secret) == 0 {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims := &BaaSClaims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
			logger.Debugw("auth_token_rejected", "request_id", getRequestID(c), "error", err)
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		actor := ActorFromClaims(claims, cfg.DefaultRole)
		c.Set(handlershared.ContextKeyActor, actor)
		c.Next()
	}
}

// RoleGateMiddleware 按角色与路由模板执行 Casbin 授权
func RoleGateMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("role_gate_service_unavailable")
			abortWithKey(c, response.CodeServiceUnavailable, "error.authz_unavailable")
			return
		}
		value, exists := c.Get(handlershared.ContextKeyActor)
		actor, ok := value.(service.Actor)
		if !exists || !ok || actor.UserID == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceRole(actor.Role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("role_gate_enforce_failed",
				"user_id", actor.UserID,
				"role", actor.Role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortWithKey(c, response.CodeServiceUnavailable, "error.authz_unavailable")
			return
		}
		if !allowed {
			logger.Warnw("role_gate_permission_denied",
				"user_id", actor.UserID,
				"role", actor.Role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			abortWithKey(c, response.CodeForbidden, "error.forbidden")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	abortWithKey(c, response.CodeUnauthorized, key)
}

func abortWithKey(c *gin.Context, code int, key string) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	response.Error(c, code, msg)
	c.Abort()
}
