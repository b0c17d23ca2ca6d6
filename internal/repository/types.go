package repository

import "time"

// ShopListFilter 查询门店列表的过滤条件
type ShopListFilter struct {
	Page     int
	PageSize int
	OwnerID  string
	Status   string
	City     string
	Search   string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	ShopID      string
	CustomerID  string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// LoyaltyTransactionListFilter 查询积分流水的过滤条件
// ShopID 为 nil 表示不限作用域，指向空字符串表示仅平台通用积分
type LoyaltyTransactionListFilter struct {
	Page     int
	PageSize int
	UserID   string
	ShopID   *string
	OrderID  string
	Type     string
}

// LoyaltyScopeStats 积分作用域统计
type LoyaltyScopeStats struct {
	Members           int64 `json:"members"`
	PointsIssued      int64 `json:"points_issued"`
	PointsRedeemed    int64 `json:"points_redeemed"`
	PointsOutstanding int64 `json:"points_outstanding"`
}

// OrderSummary 门店订单汇总
type OrderSummary struct {
	TotalOrders     int64  `json:"total_orders"`
	CompletedOrders int64  `json:"completed_orders"`
	CancelledOrders int64  `json:"cancelled_orders"`
	Revenue         string `json:"revenue"`
}
