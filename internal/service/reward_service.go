package service

import (
	"strings"

	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/repository"
)

// RewardService 积分奖励服务
type RewardService struct {
	rewardRepo repository.RewardRepository
}

// RewardInput 奖励创建/更新输入，nil 字段在更新时保持不变
type RewardInput struct {
	Name           *string
	Description    *string
	PointsRequired *int64
	IsActive       *bool
}

// NewRewardService 创建奖励服务
func NewRewardService(rewardRepo repository.RewardRepository) *RewardService {
	return &RewardService{rewardRepo: rewardRepo}
}

// ListActive 获取门店可兑换奖励
func (s *RewardService) ListActive(shopID string) ([]models.LoyaltyReward, error) {
	return s.rewardRepo.ListByShop(strings.TrimSpace(shopID), true)
}

// ListForShop 店主查看门店全部奖励
func (s *RewardService) ListForShop(shopID string) ([]models.LoyaltyReward, error) {
	return s.rewardRepo.ListByShop(strings.TrimSpace(shopID), false)
}

// Create 创建奖励
func (s *RewardService) Create(shopID string, input RewardInput) (*models.LoyaltyReward, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, ErrInvalidReward
	}
	if input.PointsRequired == nil || *input.PointsRequired < 0 {
		return nil, ErrInvalidReward
	}
	reward := &models.LoyaltyReward{
		ShopID:         strings.TrimSpace(shopID),
		Name:           strings.TrimSpace(*input.Name),
		PointsRequired: *input.PointsRequired,
		IsActive:       true,
	}
	if input.Description != nil {
		reward.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		reward.IsActive = *input.IsActive
	}
	if err := s.rewardRepo.Create(reward); err != nil {
		return nil, err
	}
	logger.Infow("loyalty_reward_created", "shop_id", reward.ShopID, "reward_id", reward.ID)
	return reward, nil
}

// Update 更新门店奖励
func (s *RewardService) Update(shopID, rewardID string, input RewardInput) (*models.LoyaltyReward, error) {
	reward, err := s.getForShop(shopID, rewardID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidReward
		}
		reward.Name = name
	}
	if input.Description != nil {
		reward.Description = strings.TrimSpace(*input.Description)
	}
	if input.PointsRequired != nil {
		if *input.PointsRequired < 0 {
			return nil, ErrInvalidReward
		}
		reward.PointsRequired = *input.PointsRequired
	}
	if input.IsActive != nil {
		reward.IsActive = *input.IsActive
	}
	if err := s.rewardRepo.Update(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Deactivate 下架奖励（删除即停用，保留历史流水关联）
func (s *RewardService) Deactivate(shopID, rewardID string) error {
	reward, err := s.getForShop(shopID, rewardID)
	if err != nil {
		return err
	}
	updated, err := s.rewardRepo.SetActive(reward.ID, false)
	if err != nil {
		return err
	}
	if !updated {
		return ErrRewardNotFound
	}
	logger.Infow("loyalty_reward_deactivated", "shop_id", reward.ShopID, "reward_id", reward.ID)
	return nil
}

func (s *RewardService) getForShop(shopID, rewardID string) (*models.LoyaltyReward, error) {
	reward, err := s.rewardRepo.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil || reward.ShopID != strings.TrimSpace(shopID) {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}
