package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/models"

	"gorm.io/gorm"
)

// LoyaltyRepository 积分账本数据访问接口
type LoyaltyRepository interface {
	GetBalance(userID, shopID string) (*models.LoyaltyBalance, error)
	ListBalances(userID string) ([]models.LoyaltyBalance, error)
	CreateBalance(balance *models.LoyaltyBalance) error
	IncrementBalance(userID, shopID string, delta int64) (bool, error)
	DecrementBalanceIfSufficient(userID, shopID string, amount int64) (bool, error)
	CreateTransaction(txn *models.LoyaltyTransaction) error
	GetTransactionByReference(reference string) (*models.LoyaltyTransaction, error)
	ListTransactions(filter LoyaltyTransactionListFilter) ([]models.LoyaltyTransaction, int64, error)
	SumPointsChange(userID, shopID string) (int64, error)
	ScopeStats(shopID string) (*LoyaltyScopeStats, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) LoyaltyRepository
}

// GormLoyaltyRepository GORM 积分账本仓储实现
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewLoyaltyRepository 创建积分账本仓储
func NewLoyaltyRepository(db *gorm.DB) *GormLoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyRepository) WithTx(tx *gorm.DB) LoyaltyRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormLoyaltyRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetBalance 获取作用域余额，不存在返回 nil
func (r *GormLoyaltyRepository) GetBalance(userID, shopID string) (*models.LoyaltyBalance, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var balance models.LoyaltyBalance
	if err := r.db.Where("user_id = ? AND shop_id = ?", userID, shopID).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &balance, nil
}

// ListBalances 获取用户全部余额
func (r *GormLoyaltyRepository) ListBalances(userID string) ([]models.LoyaltyBalance, error) {
	var balances []models.LoyaltyBalance
	if err := r.db.Where("user_id = ?", userID).Order("shop_id asc").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

// CreateBalance 创建余额行，并发重复创建由唯一索引拒绝
func (r *GormLoyaltyRepository) CreateBalance(balance *models.LoyaltyBalance) error {
	return r.db.Create(balance).Error
}

// IncrementBalance 原子增加余额，余额行不存在时返回 false
func (r *GormLoyaltyRepository) IncrementBalance(userID, shopID string, delta int64) (bool, error) {
	result := r.db.Model(&models.LoyaltyBalance{}).
		Where("user_id = ? AND shop_id = ?", userID, shopID).
		Updates(map[string]interface{}{
			"points":     gorm.Expr("points + ?", delta),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementBalanceIfSufficient 条件扣减余额（points >= amount），未命中返回 false
func (r *GormLoyaltyRepository) DecrementBalanceIfSufficient(userID, shopID string, amount int64) (bool, error) {
	result := r.db.Model(&models.LoyaltyBalance{}).
		Where("user_id = ? AND shop_id = ? AND points >= ?", userID, shopID, amount).
		Updates(map[string]interface{}{
			"points":     gorm.Expr("points - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateTransaction 追加积分流水
func (r *GormLoyaltyRepository) CreateTransaction(txn *models.LoyaltyTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference 按参考号获取流水
func (r *GormLoyaltyRepository) GetTransactionByReference(reference string) (*models.LoyaltyTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var txn models.LoyaltyTransaction
	if err := r.db.Where("reference = ?", reference).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询积分流水
func (r *GormLoyaltyRepository) ListTransactions(filter LoyaltyTransactionListFilter) ([]models.LoyaltyTransaction, int64, error) {
	query := r.db.Model(&models.LoyaltyTransaction{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.ShopID != nil {
		query = query.Where("shop_id = ?", *filter.ShopID)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	return findPage[models.LoyaltyTransaction](query, filter.Page, filter.PageSize, "created_at desc")
}

// SumPointsChange 汇总作用域内全部流水变动
func (r *GormLoyaltyRepository) SumPointsChange(userID, shopID string) (int64, error) {
	var sum int64
	if err := r.db.Model(&models.LoyaltyTransaction{}).
		Select("COALESCE(SUM(points_change), 0)").
		Where("user_id = ? AND shop_id = ?", userID, shopID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// ScopeStats 统计作用域（门店或平台通用）积分概况
func (r *GormLoyaltyRepository) ScopeStats(shopID string) (*LoyaltyScopeStats, error) {
	stats := &LoyaltyScopeStats{}
	if err := r.db.Model(&models.LoyaltyBalance{}).
		Where("shop_id = ?", shopID).
		Count(&stats.Members).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.LoyaltyBalance{}).
		Select("COALESCE(SUM(points), 0)").
		Where("shop_id = ?", shopID).
		Scan(&stats.PointsOutstanding).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.LoyaltyTransaction{}).
		Select("COALESCE(SUM(points_change), 0)").
		Where("shop_id = ? AND type = ?", shopID, constants.LoyaltyTxnTypeEarned).
		Scan(&stats.PointsIssued).Error; err != nil {
		return nil, err
	}
	var redeemed int64
	if err := r.db.Model(&models.LoyaltyTransaction{}).
		Select("COALESCE(SUM(points_change), 0)").
		Where("shop_id = ? AND type = ?", shopID, constants.LoyaltyTxnTypeRedeemed).
		Scan(&redeemed).Error; err != nil {
		return nil, err
	}
	stats.PointsRedeemed = -redeemed
	return stats, nil
}
