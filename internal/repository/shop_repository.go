package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/models"

	"gorm.io/gorm"
)

// ShopRepository 门店数据访问接口
type ShopRepository interface {
	GetByID(id string) (*models.Shop, error)
	List(filter ShopListFilter) ([]models.Shop, int64, error)
	Create(shop *models.Shop) error
	Update(shop *models.Shop) error
	UpdateLoyaltySettings(id string, pointsPerDollar int64, participatesInGlobal bool) (bool, error)
	UpdateStatus(id, status string) (bool, error)
}

var shopSearchColumns = []string{"name", "description", "city", "address"}

// GormShopRepository GORM 门店仓储实现
type GormShopRepository struct {
	db *gorm.DB
}

// NewShopRepository 创建门店仓储
func NewShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// GetByID 按 ID 获取门店
func (r *GormShopRepository) GetByID(id string) (*models.Shop, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var shop models.Shop
	if err := r.db.Where("id = ?", id).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

// List 分页查询门店
func (r *GormShopRepository) List(filter ShopListFilter) ([]models.Shop, int64, error) {
	query := r.db.Model(&models.Shop{})
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildSearchCondition(r.db, shopSearchColumns)
		like := searchPattern(dbDialectName(r.db), search)
		query = query.Where(condition, repeatLikeArgs(like, argCount)...)
	}

	return findPage[models.Shop](query, filter.Page, filter.PageSize, "name asc")
}

// Create 创建门店
func (r *GormShopRepository) Create(shop *models.Shop) error {
	return r.db.Create(shop).Error
}

// Update 更新门店
func (r *GormShopRepository) Update(shop *models.Shop) error {
	return r.db.Save(shop).Error
}

// UpdateLoyaltySettings 更新门店积分配置
func (r *GormShopRepository) UpdateLoyaltySettings(id string, pointsPerDollar int64, participatesInGlobal bool) (bool, error) {
	result := r.db.Model(&models.Shop{}).Where("id = ?", id).Updates(map[string]interface{}{
		"loyalty_points_per_dollar":      pointsPerDollar,
		"participates_in_global_loyalty": participatesInGlobal,
		"updated_at":                     time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatus 更新门店状态（停用即软删除）
func (r *GormShopRepository) UpdateStatus(id, status string) (bool, error) {
	result := r.db.Model(&models.Shop{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
