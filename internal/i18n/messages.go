package i18n

var catalog = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":               "Invalid request parameters",
		"error.unauthorized":              "Authentication required",
		"error.token_invalid":             "Invalid or expired token",
		"error.auth_header_missing":       "Missing Authorization header",
		"error.auth_header_invalid":       "Authorization header must be a Bearer token",
		"error.jwt_secret_missing":        "Token verification is not configured",
		"error.rate_limited":              "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":    "Rate limiter unavailable",
		"error.forbidden":                 "Permission denied",
		"error.not_found":                 "Resource not found",
		"error.too_many_requests":         "Too many requests, please try again later",
		"error.internal":                  "Internal server error",
		"error.authz_unavailable":         "Authorization service unavailable",
		"error.authz_role_unknown":        "Unknown role",
		"error.authz_policy_invalid":      "Invalid policy",
		"error.authz_builtin_policy":      "Built-in policies cannot be revoked",
		"error.shop_not_found":            "Shop not found",
		"error.shop_unavailable":          "Shop is not accepting orders",
		"error.shop_status_invalid":       "Invalid shop status",
		"error.shop_fetch_failed":         "Failed to load shop",
		"error.shop_update_failed":        "Failed to update shop",
		"error.menu_fetch_failed":         "Failed to load menu",
		"error.order_not_found":           "Order not found",
		"error.order_item_invalid":        "Invalid order item",
		"error.order_empty":               "Order must contain at least one item",
		"error.order_status_invalid":      "Invalid order status",
		"error.order_transition_invalid":  "Order status transition is not allowed",
		"error.order_cancel_not_allowed":  "Order can no longer be cancelled",
		"error.order_conflict":            "Order was updated concurrently, please retry",
		"error.order_create_failed":       "Failed to create order",
		"error.order_fetch_failed":        "Failed to load orders",
		"error.order_update_failed":       "Failed to update order",
		"error.tax_rate_invalid":          "Invalid tax rate",
		"error.reward_not_found":          "Reward not found",
		"error.reward_inactive":           "Reward is not active",
		"error.reward_invalid":            "Invalid reward",
		"error.reward_save_failed":        "Failed to save reward",
		"error.reward_fetch_failed":       "Failed to load rewards",
		"error.loyalty_insufficient":      "Insufficient points",
		"error.loyalty_settings_invalid":  "Invalid loyalty settings",
		"error.loyalty_entry_invalid":     "Invalid ledger entry",
		"error.loyalty_unavailable":       "Loyalty ledger is temporarily unavailable",
		"error.loyalty_fetch_failed":      "Failed to load loyalty data",
		"error.loyalty_redeem_failed":     "Failed to redeem reward",
		"error.loyalty_adjust_failed":     "Failed to adjust points",
		"error.loyalty_reconcile_failed":  "Failed to reconcile ledger",
		"error.loyalty_settings_failed":   "Failed to update loyalty settings",
		"error.shop_scope_mismatch":       "You do not have access to this shop",
		"message.reward_redeemed":         "Reward redeemed",
		"message.order_cancelled":         "Order cancelled",
		"message.reward_deactivated":      "Reward deactivated",
		"message.loyalty_ledger_mismatch": "Balance differs from ledger by %d points",
	},
	LocaleZH: {
		"error.bad_request":               "请求参数错误",
		"error.unauthorized":              "请先登录",
		"error.token_invalid":             "令牌无效或已过期",
		"error.auth_header_missing":       "缺少 Authorization 请求头",
		"error.auth_header_invalid":       "Authorization 必须为 Bearer 令牌",
		"error.jwt_secret_missing":        "未配置令牌校验密钥",
		"error.rate_limited":              "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":    "限流服务不可用",
		"error.forbidden":                 "无权限访问",
		"error.not_found":                 "资源不存在",
		"error.too_many_requests":         "请求过于频繁，请稍后再试",
		"error.internal":                  "服务器内部错误",
		"error.authz_unavailable":         "授权服务不可用",
		"error.authz_role_unknown":        "角色不存在",
		"error.authz_policy_invalid":      "策略参数不合法",
		"error.authz_builtin_policy":      "内置策略不可撤销",
		"error.shop_not_found":            "门店不存在",
		"error.shop_unavailable":          "门店暂不接单",
		"error.shop_status_invalid":       "门店状态无效",
		"error.shop_fetch_failed":         "门店加载失败",
		"error.shop_update_failed":        "门店更新失败",
		"error.menu_fetch_failed":         "菜单加载失败",
		"error.order_not_found":           "订单不存在",
		"error.order_item_invalid":        "订单商品无效",
		"error.order_empty":               "订单至少包含一件商品",
		"error.order_status_invalid":      "订单状态无效",
		"error.order_transition_invalid":  "不允许的订单状态流转",
		"error.order_cancel_not_allowed":  "订单已无法取消",
		"error.order_conflict":            "订单已被并发修改，请重试",
		"error.order_create_failed":       "下单失败",
		"error.order_fetch_failed":        "订单加载失败",
		"error.order_update_failed":       "订单更新失败",
		"error.tax_rate_invalid":          "税率无效",
		"error.reward_not_found":          "奖励不存在",
		"error.reward_inactive":           "奖励未启用",
		"error.reward_invalid":            "奖励参数无效",
		"error.reward_save_failed":        "奖励保存失败",
		"error.reward_fetch_failed":       "奖励加载失败",
		"error.loyalty_insufficient":      "积分不足",
		"error.loyalty_settings_invalid":  "积分设置无效",
		"error.loyalty_entry_invalid":     "积分流水参数无效",
		"error.loyalty_unavailable":       "积分账本暂不可用",
		"error.loyalty_fetch_failed":      "积分数据加载失败",
		"error.loyalty_redeem_failed":     "兑换失败",
		"error.loyalty_adjust_failed":     "积分调整失败",
		"error.loyalty_reconcile_failed":  "积分对账失败",
		"error.loyalty_settings_failed":   "积分设置更新失败",
		"error.shop_scope_mismatch":       "无权访问该门店",
		"message.reward_redeemed":         "兑换成功",
		"message.order_cancelled":         "订单已取消",
		"message.reward_deactivated":      "奖励已停用",
		"message.loyalty_ledger_mismatch": "余额与流水合计相差 %d 分",
	},
}
