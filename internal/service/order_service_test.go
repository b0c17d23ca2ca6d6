package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/queue"
	"github.com/loyalcup/backend/internal/repository"

	"gorm.io/gorm"
)

type recordingTaskQueue struct {
	mu       sync.Mutex
	notifies []queue.OrderStatusNotifyPayload
	retries  []queue.LoyaltyAwardRetryPayload
}

func (q *recordingTaskQueue) EnqueueOrderStatusNotify(payload queue.OrderStatusNotifyPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifies = append(q.notifies, payload)
	return nil
}

func (q *recordingTaskQueue) EnqueueLoyaltyAwardRetry(payload queue.LoyaltyAwardRetryPayload, _ time.Duration, _ int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries = append(q.retries, payload)
	return nil
}

type orderServiceFixture struct {
	db       *gorm.DB
	orders   *OrderService
	loyalty  *LoyaltyService
	configs  *staticLoyaltyConfigs
	tasks    *recordingTaskQueue
	shop     *models.Shop
	latte    *models.MenuItem
	muffin   *models.MenuItem
	soldOut  *models.MenuItem
	customer string
}

func setupOrderServiceTest(t *testing.T) *orderServiceFixture {
	t.Helper()
	db := openServiceTestDB(t, "order_service_test")

	shop := &models.Shop{
		OwnerID:                     "owner-1",
		Name:                        "Bean There",
		Status:                      constants.ShopStatusActive,
		LoyaltyPointsPerDollar:      10,
		ParticipatesInGlobalLoyalty: true,
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	latte := &models.MenuItem{ShopID: shop.ID, Name: "Latte", BasePrice: models.MustMoney("10.00"), IsAvailable: true}
	muffin := &models.MenuItem{ShopID: shop.ID, Name: "Muffin", BasePrice: models.MustMoney("3.25"), IsAvailable: true}
	soldOut := &models.MenuItem{ShopID: shop.ID, Name: "Pumpkin Spice", BasePrice: models.MustMoney("6.00"), IsAvailable: false}
	for _, item := range []*models.MenuItem{latte, muffin, soldOut} {
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("create menu item failed: %v", err)
		}
	}
	templates := []models.CustomizationTemplate{
		{
			ShopID: shop.ID,
			Name:   "Milk",
			Type:   constants.CustomizationTypeSingleSelect,
			Options: models.CustomizationOptions{
				{Name: "Whole", Price: models.MustMoney("0")},
				{Name: "Oat", Price: models.MustMoney("0.75")},
			},
		},
		{
			ShopID: shop.ID,
			Name:   "Extras",
			Type:   constants.CustomizationTypeMultiSelect,
			Options: models.CustomizationOptions{
				{Name: "Extra shot", Price: models.MustMoney("0.50")},
				{Name: "Vanilla", Price: models.MustMoney("0.60")},
			},
		},
	}
	for i := range templates {
		if err := db.Create(&templates[i]).Error; err != nil {
			t.Fatalf("create template failed: %v", err)
		}
	}

	configs := &staticLoyaltyConfigs{configs: map[string]models.LoyaltyConfig{shop.ID: shop.LoyaltyConfig()}}
	loyaltySvc := NewLoyaltyService(repository.NewLoyaltyRepository(db), repository.NewRewardRepository(db), configs)
	tasks := &recordingTaskQueue{}
	orders := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewShopRepository(db),
		repository.NewMenuRepository(db),
		loyaltySvc,
		tasks,
		OrderServiceOptions{TaxRate: mustDecimal(t, "0.08")},
	)
	return &orderServiceFixture{
		db:       db,
		orders:   orders,
		loyalty:  loyaltySvc,
		configs:  configs,
		tasks:    tasks,
		shop:     shop,
		latte:    latte,
		muffin:   muffin,
		soldOut:  soldOut,
		customer: "customer-1",
	}
}

func (f *orderServiceFixture) referenceItems() []OrderItemInput {
	return []OrderItemInput{{
		MenuItemID:     f.latte.ID,
		Quantity:       2,
		Customizations: []CustomizationSelection{{Template: "Milk", Option: "Oat"}},
	}}
}

func (f *orderServiceFixture) createOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: f.customer,
		ShopID:     f.shop.ID,
		Items:      f.referenceItems(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (f *orderServiceFixture) advance(t *testing.T, orderID string, statuses ...string) *models.Order {
	t.Helper()
	var order *models.Order
	for _, status := range statuses {
		var err error
		order, err = f.orders.UpdateStatus(context.Background(), UpdateOrderStatusInput{
			ShopID:  f.shop.ID,
			OrderID: orderID,
			Status:  status,
		})
		if err != nil {
			t.Fatalf("advance to %s failed: %v", status, err)
		}
	}
	return order
}

func TestOrderServicePreviewOrder(t *testing.T) {
	f := setupOrderServiceTest(t)
	quote, err := f.orders.PreviewOrder(f.shop.ID, f.referenceItems())
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if quote.Subtotal.String() != "21.50" || quote.Tax.String() != "1.72" || quote.Total.String() != "23.22" {
		t.Fatalf("unexpected quote totals: %s/%s/%s", quote.Subtotal, quote.Tax, quote.Total)
	}
	if quote.ShopPoints != 232 || quote.GlobalPoints != 23 {
		t.Fatalf("unexpected points preview: %d/%d", quote.ShopPoints, quote.GlobalPoints)
	}
	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("preview must not persist orders")
	}
}

func TestOrderServiceCreateOrderUsesMenuPrices(t *testing.T) {
	f := setupOrderServiceTest(t)
	order := f.createOrder(t)
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("new order should be pending, got %s", order.Status)
	}
	if order.Total.String() != "23.22" || order.LoyaltyPointsEarned != 232 || order.GlobalPointsEarned != 23 {
		t.Fatalf("unexpected order totals: total=%s shop_points=%d global_points=%d",
			order.Total, order.LoyaltyPointsEarned, order.GlobalPointsEarned)
	}

	stored, err := f.orders.GetForCustomer(f.customer, order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("want 1 item got %d", len(stored.Items))
	}
	item := stored.Items[0]
	if item.LinePrice.String() != "10.75" || item.LineTotal.String() != "21.50" {
		t.Fatalf("unexpected line pricing: %s/%s", item.LinePrice, item.LineTotal)
	}
	if len(item.Customizations) != 1 || item.Customizations[0].Name != "Milk: Oat" {
		t.Fatalf("unexpected customizations: %+v", item.Customizations)
	}

	if _, err := f.orders.GetForCustomer("someone-else", order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign customer want ErrOrderNotFound got %v", err)
	}
}

func TestOrderServiceCreateOrderRejectsInvalidItems(t *testing.T) {
	f := setupOrderServiceTest(t)
	cases := map[string][]OrderItemInput{
		"unknown item":     {{MenuItemID: "nope", Quantity: 1}},
		"sold out":         {{MenuItemID: f.soldOut.ID, Quantity: 1}},
		"zero quantity":    {{MenuItemID: f.muffin.ID, Quantity: 0}},
		"unknown option":   {{MenuItemID: f.latte.ID, Quantity: 1, Customizations: []CustomizationSelection{{Template: "Milk", Option: "Goat"}}}},
		"unknown template": {{MenuItemID: f.latte.ID, Quantity: 1, Customizations: []CustomizationSelection{{Template: "Size", Option: "Large"}}}},
		"single select twice": {{MenuItemID: f.latte.ID, Quantity: 1, Customizations: []CustomizationSelection{
			{Template: "Milk", Option: "Oat"}, {Template: "Milk", Option: "Whole"},
		}}},
	}
	for name, items := range cases {
		_, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: f.customer, ShopID: f.shop.ID, Items: items})
		if !errors.Is(err, ErrInvalidOrderItem) {
			t.Fatalf("%s: want ErrInvalidOrderItem got %v", name, err)
		}
	}
	if _, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: f.customer, ShopID: f.shop.ID}); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("empty order want ErrEmptyOrder got %v", err)
	}
}

func TestOrderServiceMultiSelectCustomizations(t *testing.T) {
	f := setupOrderServiceTest(t)
	quote, err := f.orders.PreviewOrder(f.shop.ID, []OrderItemInput{{
		MenuItemID: f.muffin.ID,
		Quantity:   1,
		Customizations: []CustomizationSelection{
			{Template: "extras", Option: "Extra shot"},
			{Template: "Extras", Option: "Vanilla"},
		},
	}})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if quote.Subtotal.String() != "4.35" {
		t.Fatalf("subtotal want 4.35 got %s", quote.Subtotal)
	}
}

func TestOrderServiceRejectsInactiveShop(t *testing.T) {
	f := setupOrderServiceTest(t)
	if err := f.db.Model(&models.Shop{}).Where("id = ?", f.shop.ID).Update("status", constants.ShopStatusSuspended).Error; err != nil {
		t.Fatalf("suspend shop failed: %v", err)
	}
	_, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{CustomerID: f.customer, ShopID: f.shop.ID, Items: f.referenceItems()})
	if !errors.Is(err, ErrShopUnavailable) {
		t.Fatalf("suspended shop want ErrShopUnavailable got %v", err)
	}
	if _, err := f.orders.PreviewOrder("missing", f.referenceItems()); !errors.Is(err, ErrShopNotFound) {
		t.Fatalf("missing shop want ErrShopNotFound got %v", err)
	}
}

func TestOrderServiceLifecycleAwardsPointsOnCompletion(t *testing.T) {
	f := setupOrderServiceTest(t)
	order := f.createOrder(t)

	done := f.advance(t, order.ID,
		constants.OrderStatusAccepted,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusPickedUp,
	)
	shopPoints, _ := f.loyalty.GetBalance(f.customer, f.shop.ID)
	if shopPoints != 0 {
		t.Fatalf("points must not be awarded before completion, got %d", shopPoints)
	}

	done = f.advance(t, order.ID, constants.OrderStatusCompleted)
	if done.Status != constants.OrderStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("order should be completed with timestamp: %+v", done)
	}
	if done.Total.String() != "23.22" {
		t.Fatalf("totals must not change on transition, got %s", done.Total)
	}

	shopPoints, _ = f.loyalty.GetBalance(f.customer, f.shop.ID)
	globalPoints, _ := f.loyalty.GetBalance(f.customer, constants.LoyaltyScopeGlobal)
	if shopPoints != 232 || globalPoints != 23 {
		t.Fatalf("balances want 232/23 got %d/%d", shopPoints, globalPoints)
	}
	if len(f.tasks.notifies) != 5 {
		t.Fatalf("want 5 status notifications got %d", len(f.tasks.notifies))
	}
	last := f.tasks.notifies[len(f.tasks.notifies)-1]
	if last.FromStatus != constants.OrderStatusPickedUp || last.ToStatus != constants.OrderStatusCompleted {
		t.Fatalf("unexpected last notification: %+v", last)
	}
	if len(f.tasks.retries) != 0 {
		t.Fatalf("no award retry expected, got %d", len(f.tasks.retries))
	}

	if _, err := f.orders.UpdateStatus(context.Background(), UpdateOrderStatusInput{
		ShopID: f.shop.ID, OrderID: order.ID, Status: constants.OrderStatusCancelled,
	}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed order is terminal, want ErrInvalidTransition got %v", err)
	}
}

func TestOrderServiceRejectsSkippedTransition(t *testing.T) {
	f := setupOrderServiceTest(t)
	order := f.createOrder(t)
	_, err := f.orders.UpdateStatus(context.Background(), UpdateOrderStatusInput{
		ShopID:  f.shop.ID,
		OrderID: order.ID,
		Status:  constants.OrderStatusPickedUp,
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> picked_up want ErrInvalidTransition got %v", err)
	}
	if _, err := f.orders.UpdateStatus(context.Background(), UpdateOrderStatusInput{
		ShopID: f.shop.ID, OrderID: order.ID, Status: "shipped",
	}); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("unknown status want ErrInvalidOrderStatus got %v", err)
	}
	if _, err := f.orders.UpdateStatus(context.Background(), UpdateOrderStatusInput{
		ShopID: "other-shop", OrderID: order.ID, Status: constants.OrderStatusAccepted,
	}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign shop want ErrOrderNotFound got %v", err)
	}
}

func TestOrderServiceAwardFailureDoesNotRevertCompletion(t *testing.T) {
	f := setupOrderServiceTest(t)
	order := f.createOrder(t)
	f.advance(t, order.ID,
		constants.OrderStatusAccepted,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusPickedUp,
	)

	f.configs.setErr(errors.New("store offline"))
	done, err := f.orders.UpdateStatus(context.Background(), UpdateOrderStatusInput{
		ShopID:  f.shop.ID,
		OrderID: order.ID,
		Status:  constants.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("completion must succeed even when award fails: %v", err)
	}
	if done.Status != constants.OrderStatusCompleted {
		t.Fatalf("order should stay completed, got %s", done.Status)
	}
	if len(f.tasks.retries) != 1 || f.tasks.retries[0].OrderID != order.ID {
		t.Fatalf("award retry should be enqueued, got %+v", f.tasks.retries)
	}

	f.configs.setErr(nil)
	if err := f.orders.RetryLoyaltyAward(context.Background(), order.ID); err != nil {
		t.Fatalf("retry award failed: %v", err)
	}
	if err := f.orders.RetryLoyaltyAward(context.Background(), order.ID); err != nil {
		t.Fatalf("second retry should be a no-op: %v", err)
	}
	shopPoints, _ := f.loyalty.GetBalance(f.customer, f.shop.ID)
	if shopPoints != 232 {
		t.Fatalf("retry should award exactly once, got %d", shopPoints)
	}
}

func TestOrderServiceCustomerCancel(t *testing.T) {
	f := setupOrderServiceTest(t)
	order := f.createOrder(t)
	cancelled, err := f.orders.CancelOrder(context.Background(), f.customer, order.ID)
	if err != nil {
		t.Fatalf("cancel pending order failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("order should be cancelled with timestamp: %+v", cancelled)
	}

	accepted := f.createOrder(t)
	f.advance(t, accepted.ID, constants.OrderStatusAccepted)
	_, err = f.orders.CancelOrder(context.Background(), f.customer, accepted.ID)
	if !errors.Is(err, ErrOrderCancelNotAllowed) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accepted order want ErrOrderCancelNotAllowed got %v", err)
	}

	shopCancelled := f.advance(t, accepted.ID, constants.OrderStatusCancelled)
	if shopCancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("shop should be able to cancel accepted order")
	}
}

func TestOrderServiceListingAndSummary(t *testing.T) {
	f := setupOrderServiceTest(t)
	first := f.createOrder(t)
	f.createOrder(t)
	f.advance(t, first.ID,
		constants.OrderStatusAccepted,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusPickedUp,
		constants.OrderStatusCompleted,
	)

	orders, total, err := f.orders.ListForCustomer(f.customer, repository.OrderListFilter{Page: 1, PageSize: 10})
	if err != nil || total != 2 || len(orders) != 2 {
		t.Fatalf("customer list want 2 got total=%d len=%d err=%v", total, len(orders), err)
	}
	_, total, err = f.orders.ListForShop(f.shop.ID, repository.OrderListFilter{Status: constants.OrderStatusPending})
	if err != nil || total != 1 {
		t.Fatalf("pending shop orders want 1 got %d err=%v", total, err)
	}

	summary, err := f.orders.ShopSummary(f.shop.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalOrders != 2 || summary.CompletedOrders != 1 || summary.Revenue != "23.22" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
