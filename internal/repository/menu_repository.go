package repository

import (
	"github.com/loyalcup/backend/internal/models"

	"gorm.io/gorm"
)

// MenuRepository 菜单数据访问接口
type MenuRepository interface {
	ListCategories(shopID string) ([]models.MenuCategory, error)
	ListItems(shopID string, onlyAvailable bool) ([]models.MenuItem, error)
	GetItemsByIDs(shopID string, ids []string) ([]models.MenuItem, error)
	ListTemplates(shopID string) ([]models.CustomizationTemplate, error)
	CreateCategory(category *models.MenuCategory) error
	CreateItem(item *models.MenuItem) error
	CreateTemplate(template *models.CustomizationTemplate) error
}

// GormMenuRepository GORM 菜单仓储实现
type GormMenuRepository struct {
	db *gorm.DB
}

// NewMenuRepository 创建菜单仓储
func NewMenuRepository(db *gorm.DB) *GormMenuRepository {
	return &GormMenuRepository{db: db}
}

// ListCategories 获取门店菜单分类
func (r *GormMenuRepository) ListCategories(shopID string) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	if err := r.db.Where("shop_id = ?", shopID).Order("display_order asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListItems 获取门店菜单商品
func (r *GormMenuRepository) ListItems(shopID string, onlyAvailable bool) ([]models.MenuItem, error) {
	query := r.db.Where("shop_id = ?", shopID)
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	if err := query.Order("display_order asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetItemsByIDs 批量获取门店内的菜单商品
func (r *GormMenuRepository) GetItemsByIDs(shopID string, ids []string) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return []models.MenuItem{}, nil
	}
	var items []models.MenuItem
	if err := r.db.Where("shop_id = ? AND id IN ?", shopID, ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListTemplates 获取门店自定义模板
func (r *GormMenuRepository) ListTemplates(shopID string) ([]models.CustomizationTemplate, error) {
	var templates []models.CustomizationTemplate
	if err := r.db.Where("shop_id = ?", shopID).Order("display_order asc").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// CreateCategory 创建分类
func (r *GormMenuRepository) CreateCategory(category *models.MenuCategory) error {
	return r.db.Create(category).Error
}

// CreateItem 创建菜单商品
func (r *GormMenuRepository) CreateItem(item *models.MenuItem) error {
	return r.db.Create(item).Error
}

// CreateTemplate 创建自定义模板
func (r *GormMenuRepository) CreateTemplate(template *models.CustomizationTemplate) error {
	return r.db.Create(template).Error
}
