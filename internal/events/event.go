package events

import (
	"time"

	"github.com/loyalcup/backend/internal/constants"
)

// OrderStatusChanged 订单状态变更事件，由外部通知服务消费
type OrderStatusChanged struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	ShopID     string    `json:"shop_id"`
	CustomerID string    `json:"customer_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOrderStatusChanged 构建订单状态变更事件
func NewOrderStatusChanged(orderID, shopID, customerID, from, to string, at time.Time) OrderStatusChanged {
	if at.IsZero() {
		at = time.Now()
	}
	return OrderStatusChanged{
		Type:       constants.EventOrderStatusChanged,
		OrderID:    orderID,
		ShopID:     shopID,
		CustomerID: customerID,
		FromStatus: from,
		ToStatus:   to,
		OccurredAt: at.UTC(),
	}
}
