package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/queue"
	"github.com/loyalcup/backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderTaskQueue 订单异步任务入队
type OrderTaskQueue interface {
	EnqueueOrderStatusNotify(payload queue.OrderStatusNotifyPayload) error
	EnqueueLoyaltyAwardRetry(payload queue.LoyaltyAwardRetryPayload, delay time.Duration, maxRetry int) error
}

// OrderServiceOptions 订单服务配置
type OrderServiceOptions struct {
	TaxRate          decimal.Decimal
	AwardRetryDelay  time.Duration
	AwardRetryMax    int
	NotifyOnCreation bool
}

// OrderService 订单服务
type OrderService struct {
	orderRepo  repository.OrderRepository
	shopRepo   repository.ShopRepository
	menuRepo   repository.MenuRepository
	loyaltySvc *LoyaltyService
	taskQueue  OrderTaskQueue
	options    OrderServiceOptions
}

// CustomizationSelection 顾客选择的自定义项（模板名 + 选项名）
type CustomizationSelection struct {
	Template string `json:"template"`
	Option   string `json:"option"`
}

// OrderItemInput 下单商品输入
type OrderItemInput struct {
	MenuItemID     string                   `json:"menu_item_id"`
	Quantity       int                      `json:"quantity"`
	Customizations []CustomizationSelection `json:"customizations"`
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	CustomerID string
	ShopID     string
	Items      []OrderItemInput
	Notes      string
}

// OrderQuote 订单预览
type OrderQuote struct {
	ShopID       string             `json:"shop_id"`
	Items        []models.OrderItem `json:"items"`
	Subtotal     models.Money       `json:"subtotal"`
	Tax          models.Money       `json:"tax"`
	Total        models.Money       `json:"total"`
	ShopPoints   int64              `json:"shop_points"`
	GlobalPoints int64              `json:"global_points"`
}

// UpdateOrderStatusInput 门店更新订单状态输入
type UpdateOrderStatusInput struct {
	ShopID  string
	OrderID string
	Status  string
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	shopRepo repository.ShopRepository,
	menuRepo repository.MenuRepository,
	loyaltySvc *LoyaltyService,
	taskQueue OrderTaskQueue,
	options OrderServiceOptions,
) *OrderService {
	if options.AwardRetryDelay <= 0 {
		options.AwardRetryDelay = 30 * time.Second
	}
	if options.AwardRetryMax <= 0 {
		options.AwardRetryMax = 5
	}
	return &OrderService{
		orderRepo:  orderRepo,
		shopRepo:   shopRepo,
		menuRepo:   menuRepo,
		loyaltySvc: loyaltySvc,
		taskQueue:  taskQueue,
		options:    options,
	}
}

// PreviewOrder 计算订单金额与可得积分，不落库
func (s *OrderService) PreviewOrder(shopID string, items []OrderItemInput) (*OrderQuote, error) {
	shop, err := s.orderableShop(shopID)
	if err != nil {
		return nil, err
	}
	orderItems, totals, err := s.priceItems(shop.ID, items)
	if err != nil {
		return nil, err
	}
	shopPoints, globalPoints := CalculatePoints(totals.Total.Amount(), shop.LoyaltyConfig())
	return &OrderQuote{
		ShopID:       shop.ID,
		Items:        orderItems,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		ShopPoints:   shopPoints,
		GlobalPoints: globalPoints,
	}, nil
}

// CreateOrder 创建订单，单价以菜单为准
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return nil, ErrForbidden
	}
	shop, err := s.orderableShop(input.ShopID)
	if err != nil {
		return nil, err
	}
	items, totals, err := s.priceItems(shop.ID, input.Items)
	if err != nil {
		return nil, err
	}

	shopPoints, globalPoints := CalculatePoints(totals.Total.Amount(), shop.LoyaltyConfig())
	order := &models.Order{
		ShopID:              shop.ID,
		CustomerID:          customerID,
		Status:              constants.OrderStatusPending,
		Subtotal:            totals.Subtotal,
		Tax:                 totals.Tax,
		Total:               totals.Total,
		LoyaltyPointsEarned: shopPoints,
		GlobalPointsEarned:  globalPoints,
		Notes:               strings.TrimSpace(input.Notes),
	}
	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, items)
	}); err != nil {
		return nil, err
	}
	logger.Infow("order_created",
		"order_id", order.ID,
		"shop_id", order.ShopID,
		"customer_id", order.CustomerID,
		"total", order.Total.String(),
	)
	if s.options.NotifyOnCreation {
		s.notifyStatusChanged(ctx, order, "")
	}
	return order, nil
}

// GetForCustomer 顾客查看自己的订单
func (s *OrderService) GetForCustomer(customerID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.CustomerID != strings.TrimSpace(customerID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForShop 门店查看订单
func (s *OrderService) GetForShop(shopID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ShopID != strings.TrimSpace(shopID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListForCustomer 顾客订单列表
func (s *OrderService) ListForCustomer(customerID string, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.CustomerID = strings.TrimSpace(customerID)
	if filter.CustomerID == "" {
		return []models.Order{}, 0, nil
	}
	return s.orderRepo.List(filter)
}

// ListForShop 门店订单列表
func (s *OrderService) ListForShop(shopID string, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.ShopID = strings.TrimSpace(shopID)
	if filter.ShopID == "" {
		return []models.Order{}, 0, nil
	}
	return s.orderRepo.List(filter)
}

// ShopSummary 门店订单汇总
func (s *OrderService) ShopSummary(shopID string) (*repository.OrderSummary, error) {
	return s.orderRepo.Summary(strings.TrimSpace(shopID))
}

// UpdateStatus 门店推进订单状态；完成时发放积分，发放失败不影响订单完成
func (s *OrderService) UpdateStatus(ctx context.Context, input UpdateOrderStatusInput) (*models.Order, error) {
	target, ok := NormalizeOrderStatus(input.Status)
	if !ok {
		return nil, ErrInvalidOrderStatus
	}
	order, err := s.GetForShop(input.ShopID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !ValidateTransition(order.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	from := order.Status
	updated, err := s.transition(order.ID, from, target)
	if err != nil {
		return nil, err
	}
	logger.Infow("order_status_updated",
		"order_id", updated.ID,
		"shop_id", updated.ShopID,
		"from_status", from,
		"to_status", target,
	)
	if target == constants.OrderStatusCompleted {
		s.awardCompletedOrder(ctx, updated)
	}
	s.notifyStatusChanged(ctx, updated, from)
	return updated, nil
}

// CancelOrder 顾客取消订单，仅待接单状态可取消
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID string) (*models.Order, error) {
	order, err := s.GetForCustomer(customerID, orderID)
	if err != nil {
		return nil, err
	}
	if !CanCancel(order.Status) {
		return nil, ErrOrderCancelNotAllowed
	}
	updated, err := s.transition(order.ID, order.Status, constants.OrderStatusCancelled)
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return nil, ErrOrderCancelNotAllowed
		}
		return nil, err
	}
	logger.Infow("order_cancelled_by_customer", "order_id", updated.ID, "customer_id", updated.CustomerID)
	s.notifyStatusChanged(ctx, updated, order.Status)
	return updated, nil
}

// RetryLoyaltyAward 补发已完成订单的积分（幂等）
func (s *OrderService) RetryLoyaltyAward(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusCompleted {
		logger.Warnw("loyalty_award_retry_skipped", "order_id", order.ID, "status", order.Status)
		return nil
	}
	txns, err := s.loyaltySvc.AwardForOrder(ctx, order)
	if err != nil {
		return err
	}
	logger.Infow("loyalty_award_retry_succeeded", "order_id", order.ID, "transactions", len(txns))
	return nil
}

// transition 条件更新订单状态，当前状态已被修改时返回并发冲突
func (s *OrderService) transition(orderID, from, to string) (*models.Order, error) {
	now := time.Now()
	updates := map[string]interface{}{}
	switch to {
	case constants.OrderStatusCompleted:
		updates["completed_at"] = now
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	ok, err := s.orderRepo.UpdateStatusFrom(orderID, from, to, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrencyConflict
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) awardCompletedOrder(ctx context.Context, order *models.Order) {
	if s.loyaltySvc == nil {
		return
	}
	txns, err := s.loyaltySvc.AwardForOrder(ctx, order)
	if err == nil {
		logger.Infow("loyalty_awarded", "order_id", order.ID, "transactions", len(txns))
		return
	}
	logger.Errorw("loyalty_award_failed",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"shop_id", order.ShopID,
		"awarded_scopes", len(txns),
		"error", err,
	)
	if s.taskQueue == nil {
		return
	}
	if qerr := s.taskQueue.EnqueueLoyaltyAwardRetry(queue.LoyaltyAwardRetryPayload{
		OrderID: order.ID,
		Reason:  err.Error(),
	}, s.options.AwardRetryDelay, s.options.AwardRetryMax); qerr != nil {
		logger.Errorw("loyalty_award_retry_enqueue_failed", "order_id", order.ID, "error", qerr)
	}
}

func (s *OrderService) notifyStatusChanged(_ context.Context, order *models.Order, from string) {
	if s.taskQueue == nil || order == nil {
		return
	}
	if err := s.taskQueue.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{
		OrderID:    order.ID,
		ShopID:     order.ShopID,
		CustomerID: order.CustomerID,
		FromStatus: from,
		ToStatus:   order.Status,
		OccurredAt: order.UpdatedAt,
	}); err != nil {
		logger.Warnw("order_status_notify_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) orderableShop(shopID string) (*models.Shop, error) {
	shop, err := s.shopRepo.GetByID(shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if shop.Status != constants.ShopStatusActive {
		return nil, ErrShopUnavailable
	}
	return shop, nil
}

// priceItems 按门店菜单与自定义模板解析下单商品并计算金额
func (s *OrderService) priceItems(shopID string, inputs []OrderItemInput) ([]models.OrderItem, OrderTotals, error) {
	if len(inputs) == 0 {
		return nil, OrderTotals{}, ErrEmptyOrder
	}
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		ids = append(ids, strings.TrimSpace(input.MenuItemID))
	}
	menuItems, err := s.menuRepo.GetItemsByIDs(shopID, ids)
	if err != nil {
		return nil, OrderTotals{}, err
	}
	menuByID := make(map[string]models.MenuItem, len(menuItems))
	for _, item := range menuItems {
		menuByID[item.ID] = item
	}
	templates, err := s.menuRepo.ListTemplates(shopID)
	if err != nil {
		return nil, OrderTotals{}, err
	}

	items := make([]models.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		menuItem, ok := menuByID[strings.TrimSpace(input.MenuItemID)]
		if !ok {
			return nil, OrderTotals{}, fmt.Errorf("%w: 商品不存在", ErrInvalidOrderItem)
		}
		if !menuItem.IsAvailable {
			return nil, OrderTotals{}, fmt.Errorf("%w: %s 暂不可售", ErrInvalidOrderItem, menuItem.Name)
		}
		customizations, err := resolveCustomizations(templates, input.Customizations)
		if err != nil {
			return nil, OrderTotals{}, err
		}
		menuItemID := menuItem.ID
		item := models.OrderItem{
			MenuItemID:     &menuItemID,
			Name:           menuItem.Name,
			Quantity:       input.Quantity,
			UnitBasePrice:  models.NewMoneyFromDecimal(menuItem.BasePrice.Decimal),
			Customizations: customizations,
		}
		if err := PriceOrderItem(&item); err != nil {
			return nil, OrderTotals{}, err
		}
		items = append(items, item)
	}

	totals, err := ComputeTotals(items, s.options.TaxRate)
	if err != nil {
		return nil, OrderTotals{}, err
	}
	return items, totals, nil
}

// resolveCustomizations 将顾客选择映射为带价格的自定义项，保持选择顺序
func resolveCustomizations(templates []models.CustomizationTemplate, selections []CustomizationSelection) (models.Customizations, error) {
	byName := make(map[string]models.CustomizationTemplate, len(templates))
	for _, tpl := range templates {
		byName[strings.ToLower(strings.TrimSpace(tpl.Name))] = tpl
	}
	chosen := make(map[string]int, len(selections))
	result := make(models.Customizations, 0, len(selections))
	for _, selection := range selections {
		key := strings.ToLower(strings.TrimSpace(selection.Template))
		tpl, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("%w: 未知的自定义项 %s", ErrInvalidOrderItem, selection.Template)
		}
		option, ok := tpl.Options.Find(strings.TrimSpace(selection.Option))
		if !ok {
			return nil, fmt.Errorf("%w: %s 不支持选项 %s", ErrInvalidOrderItem, tpl.Name, selection.Option)
		}
		chosen[key]++
		if tpl.Type == constants.CustomizationTypeSingleSelect && chosen[key] > 1 {
			return nil, fmt.Errorf("%w: %s 只能选择一项", ErrInvalidOrderItem, tpl.Name)
		}
		result = append(result, models.Customization{
			Name:            fmt.Sprintf("%s: %s", tpl.Name, option.Name),
			AdditionalPrice: models.NewMoneyFromDecimal(option.Price.Decimal),
		})
	}
	for key, tpl := range byName {
		if tpl.IsRequired && chosen[key] == 0 {
			return nil, fmt.Errorf("%w: 请选择%s", ErrInvalidOrderItem, tpl.Name)
		}
	}
	return result, nil
}
