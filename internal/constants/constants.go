package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusPickedUp  = "picked_up"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// 积分流水类型常量
const (
	LoyaltyTxnTypeEarned   = "earned"
	LoyaltyTxnTypeRedeemed = "redeemed"
	LoyaltyTxnTypeAdjusted = "adjusted"
	LoyaltyTxnTypeExpired  = "expired"
)

// 积分作用域常量（空 shop_id 表示平台通用积分）
const (
	LoyaltyScopeGlobal = ""
	LoyaltyScopeShop   = "shop"
)

// 门店状态常量
const (
	ShopStatusActive          = "active"
	ShopStatusPendingApproval = "pending_approval"
	ShopStatusSuspended       = "suspended"
)

// 自定义选项类型常量
const (
	CustomizationTypeSingleSelect = "single_select"
	CustomizationTypeMultiSelect  = "multi_select"
)

// 用户角色常量
const (
	RoleCustomer   = "customer"
	RoleShopWorker = "shop_worker"
	RoleShopOwner  = "shop_owner"
	RoleAdmin      = "admin"
)

// AppRoles 应用角色，按权限由低到高排列
var AppRoles = []string{RoleCustomer, RoleShopWorker, RoleShopOwner, RoleAdmin}

// IsAppRole 判断是否为应用角色
func IsAppRole(role string) bool {
	for _, item := range AppRoles {
		if item == role {
			return true
		}
	}
	return false
}

// 队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskOrderStatusNotify = "order:status_notify"
	TaskLoyaltyAwardRetry = "loyalty:award_retry"
)

// 事件类型常量
const (
	EventOrderStatusChanged = "order.status_changed"
	EventLoyaltyRedeemed    = "loyalty.reward_redeemed"
)

// 全局积分倍率（每 1 货币单位积 1 分）
const GlobalPointsPerCurrencyUnit int64 = 1
