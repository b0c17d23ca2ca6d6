package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	UpdateStatusFrom(id, from, to string, updates map[string]interface{}) (bool, error)
	Summary(shopID string) (*OrderSummary, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	order.Items = nil
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// GetByID 根据 ID 获取订单（含订单项）
func (r *GormOrderRepository) GetByID(id string) (*models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 分页查询订单
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.ShopID != "" {
		query = query.Where("shop_id = ?", filter.ShopID)
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return findPage[models.Order](query, filter.Page, filter.PageSize, "created_at desc", "Items")
}

// UpdateStatusFrom 仅当当前状态为 from 时更新为 to，返回是否命中
func (r *GormOrderRepository) UpdateStatusFrom(id, from, to string, updates map[string]interface{}) (bool, error) {
	payload := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for key, value := range updates {
		payload[key] = value
	}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(payload)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Summary 汇总门店订单
func (r *GormOrderRepository) Summary(shopID string) (*OrderSummary, error) {
	type statusRow struct {
		Status string
		Count  int64
	}
	var rows []statusRow
	if err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	summary := &OrderSummary{Revenue: "0.00"}
	for _, row := range rows {
		summary.TotalOrders += row.Count
		switch row.Status {
		case constants.OrderStatusCompleted:
			summary.CompletedOrders = row.Count
		case constants.OrderStatusCancelled:
			summary.CancelledOrders = row.Count
		}
	}

	var completed []models.Order
	if err := r.db.Select("total").
		Where("shop_id = ? AND status = ?", shopID, constants.OrderStatusCompleted).
		Find(&completed).Error; err != nil {
		return nil, err
	}
	revenue := decimal.Zero
	for _, order := range completed {
		revenue = revenue.Add(order.Total.Amount())
	}
	summary.Revenue = revenue.StringFixed(2)
	return summary, nil
}
