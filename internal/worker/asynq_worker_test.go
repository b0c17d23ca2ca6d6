package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalcup/backend/internal/events"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/provider"
	"github.com/loyalcup/backend/internal/queue"
	"github.com/loyalcup/backend/internal/repository"
	"github.com/loyalcup/backend/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events []events.OrderStatusChanged
	err    error
}

func (p *recordingPublisher) PublishOrderStatusChanged(_ context.Context, event events.OrderStatusChanged) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newNotifyTask(t *testing.T, payload queue.OrderStatusNotifyPayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewOrderStatusNotifyTask(payload)
	if err != nil {
		t.Fatalf("build notify task failed: %v", err)
	}
	return task
}

func TestHandleOrderStatusNotifyPublishesEvent(t *testing.T) {
	publisher := &recordingPublisher{}
	consumer := NewConsumer(&provider.Container{EventPublisher: publisher})
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	task := newNotifyTask(t, queue.OrderStatusNotifyPayload{
		OrderID:    "order-1",
		ShopID:     "shop-1",
		CustomerID: "user-1",
		FromStatus: "pending",
		ToStatus:   "accepted",
		OccurredAt: at,
	})
	if err := consumer.handleOrderStatusNotify(context.Background(), task); err != nil {
		t.Fatalf("handle notify failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("want 1 published event got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != "order.status_changed" || event.OrderID != "order-1" || event.ToStatus != "accepted" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("want occurred_at %v got %v", at, event.OccurredAt)
	}
}

func TestHandleOrderStatusNotifyReturnsPublishError(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	consumer := NewConsumer(&provider.Container{EventPublisher: publisher})

	task := newNotifyTask(t, queue.OrderStatusNotifyPayload{OrderID: "order-1", ToStatus: "ready"})
	if err := consumer.handleOrderStatusNotify(context.Background(), task); err == nil {
		t.Fatalf("expected publish error to be returned for retry")
	}
}

func TestHandleOrderStatusNotifySkipsInvalidPayload(t *testing.T) {
	publisher := &recordingPublisher{}
	consumer := NewConsumer(&provider.Container{EventPublisher: publisher})

	task := newNotifyTask(t, queue.OrderStatusNotifyPayload{OrderID: "order-1"})
	if err := consumer.handleOrderStatusNotify(context.Background(), task); err != nil {
		t.Fatalf("invalid payload should be skipped, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("invalid payload should not publish")
	}

	broken := asynq.NewTask(queue.TaskOrderStatusNotify, []byte("{"))
	if err := consumer.handleOrderStatusNotify(context.Background(), broken); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestHandleLoyaltyAwardRetrySkipsMissingOrder(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	orderRepo := repository.NewOrderRepository(db)
	shopRepo := repository.NewShopRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	loyaltySvc := service.NewLoyaltyService(repository.NewLoyaltyRepository(db), repository.NewRewardRepository(db), nil)
	orderSvc := service.NewOrderService(orderRepo, shopRepo, menuRepo, loyaltySvc, nil, service.OrderServiceOptions{})
	consumer := NewConsumer(&provider.Container{OrderService: orderSvc})

	body, _ := json.Marshal(queue.LoyaltyAwardRetryPayload{OrderID: "missing-order", Reason: "store timeout"})
	task := asynq.NewTask(queue.TaskLoyaltyAwardRetry, body)
	if err := consumer.handleLoyaltyAwardRetry(context.Background(), task); err != nil {
		t.Fatalf("missing order should be skipped, got %v", err)
	}
}

func TestHandleLoyaltyAwardRetrySkipsWithoutService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	body, _ := json.Marshal(queue.LoyaltyAwardRetryPayload{OrderID: "order-1"})
	if err := consumer.handleLoyaltyAwardRetry(context.Background(), asynq.NewTask(queue.TaskLoyaltyAwardRetry, body)); err != nil {
		t.Fatalf("expected skip without service, got %v", err)
	}
	if err := consumer.handleLoyaltyAwardRetry(context.Background(), nil); err != nil {
		t.Fatalf("nil task should be skipped, got %v", err)
	}
}
