package public

import "github.com/loyalcup/backend/internal/provider"

// Handler 顾客侧与公开接口处理器入口
// 说明：门店浏览无需登录，下单与积分接口需要顾客身份。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
