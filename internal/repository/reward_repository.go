package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyalcup/backend/internal/models"

	"gorm.io/gorm"
)

// RewardRepository 积分奖励数据访问接口
type RewardRepository interface {
	GetByID(id string) (*models.LoyaltyReward, error)
	ListByShop(shopID string, onlyActive bool) ([]models.LoyaltyReward, error)
	Create(reward *models.LoyaltyReward) error
	Update(reward *models.LoyaltyReward) error
	SetActive(id string, active bool) (bool, error)
}

// GormRewardRepository GORM 奖励仓储实现
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository 创建奖励仓储
func NewRewardRepository(db *gorm.DB) *GormRewardRepository {
	return &GormRewardRepository{db: db}
}

// GetByID 按 ID 获取奖励
func (r *GormRewardRepository) GetByID(id string) (*models.LoyaltyReward, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var reward models.LoyaltyReward
	if err := r.db.Where("id = ?", id).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// ListByShop 获取门店奖励
func (r *GormRewardRepository) ListByShop(shopID string, onlyActive bool) ([]models.LoyaltyReward, error) {
	query := r.db.Where("shop_id = ?", shopID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var rewards []models.LoyaltyReward
	if err := query.Order("points_required asc").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

// Create 创建奖励
func (r *GormRewardRepository) Create(reward *models.LoyaltyReward) error {
	return r.db.Create(reward).Error
}

// Update 更新奖励
func (r *GormRewardRepository) Update(reward *models.LoyaltyReward) error {
	return r.db.Save(reward).Error
}

// SetActive 启用或停用奖励
func (r *GormRewardRepository) SetActive(id string, active bool) (bool, error) {
	result := r.db.Model(&models.LoyaltyReward{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
