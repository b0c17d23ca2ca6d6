package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/loyalcup/backend/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskLoyaltyAwardRetry 积分补发任务
	TaskLoyaltyAwardRetry = constants.TaskLoyaltyAwardRetry
)

// OrderStatusNotifyPayload 订单状态通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID    string    `json:"order_id"`
	ShopID     string    `json:"shop_id"`
	CustomerID string    `json:"customer_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LoyaltyAwardRetryPayload 积分补发任务载荷
type LoyaltyAwardRetryPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

// NewOrderStatusNotifyTask 创建订单状态通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusNotify, body), nil
}

// NewLoyaltyAwardRetryTask 创建积分补发任务
func NewLoyaltyAwardRetryTask(payload LoyaltyAwardRetryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoyaltyAwardRetry, body), nil
}

// LoyaltyAwardRetryTaskID 积分补发任务唯一ID
func LoyaltyAwardRetryTaskID(orderID string) string {
	return fmt.Sprintf("%s:%s", TaskLoyaltyAwardRetry, orderID)
}
