package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/loyalcup/backend/internal/events"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/provider"
	"github.com/loyalcup/backend/internal/queue"
	"github.com/loyalcup/backend/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify)
	mux.HandleFunc(queue.TaskLoyaltyAwardRetry, c.handleLoyaltyAwardRetry)
}

func (c *Consumer) handleOrderStatusNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.OrderID) == "" || strings.TrimSpace(payload.ToStatus) == "" {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload",
			"order_id", payload.OrderID,
			"to_status", payload.ToStatus,
		)
		return nil
	}
	if c.EventPublisher == nil {
		logger.Debugw("worker_order_status_notify_skip_publisher_unavailable", "order_id", payload.OrderID)
		return nil
	}
	event := events.NewOrderStatusChanged(
		payload.OrderID,
		payload.ShopID,
		payload.CustomerID,
		payload.FromStatus,
		payload.ToStatus,
		payload.OccurredAt,
	)
	if err := c.EventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		logger.Warnw("worker_order_status_notify_publish_failed",
			"order_id", payload.OrderID,
			"to_status", payload.ToStatus,
			"error", err,
		)
		return err
	}
	logger.Debugw("worker_order_status_notify_published", "order_id", payload.OrderID, "to_status", payload.ToStatus)
	return nil
}

func (c *Consumer) handleLoyaltyAwardRetry(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_loyalty_award_retry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LoyaltyAwardRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_loyalty_award_retry_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		logger.Debugw("worker_loyalty_award_retry_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Debugw("worker_loyalty_award_retry_skip_service_unavailable", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.RetryLoyaltyAward(ctx, payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			logger.Debugw("worker_loyalty_award_retry_skip_not_found", "order_id", payload.OrderID, "error", err)
			return nil
		case errors.Is(err, service.ErrInvalidState):
			logger.Debugw("worker_loyalty_award_retry_skip_invalid_state", "order_id", payload.OrderID, "error", err)
			return nil
		default:
			logger.Warnw("worker_loyalty_award_retry_failed",
				"order_id", payload.OrderID,
				"reason", payload.Reason,
				"error", err,
			)
			return err
		}
	}
	return nil
}
