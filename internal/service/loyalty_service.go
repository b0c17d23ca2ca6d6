package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 同一作用域并发创建余额行时的最大尝试次数
const maxLedgerAttempts = 3

// LoyaltyConfigProvider 门店积分配置读取
type LoyaltyConfigProvider interface {
	GetLoyaltyConfig(ctx context.Context, shopID string) (*models.LoyaltyConfig, error)
}

// LoyaltyService 积分账本服务
type LoyaltyService struct {
	loyaltyRepo repository.LoyaltyRepository
	rewardRepo  repository.RewardRepository
	configs     LoyaltyConfigProvider
}

// RedeemResult 兑换结果
type RedeemResult struct {
	Balance     int64                      `json:"balance"`
	Transaction *models.LoyaltyTransaction `json:"transaction"`
	Reward      *models.LoyaltyReward      `json:"reward"`
}

// LoyaltyAdjustInput 管理员积分调整输入
type LoyaltyAdjustInput struct {
	UserID    string
	ShopID    string
	Delta     int64
	Reference string
	Reason    string
}

// LoyaltyExpireInput 积分过期输入
type LoyaltyExpireInput struct {
	UserID    string
	ShopID    string
	Points    int64
	Reference string
	Reason    string
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	UserID     string `json:"user_id"`
	ShopID     string `json:"shop_id,omitempty"`
	Balance    int64  `json:"balance"`
	LedgerSum  int64  `json:"ledger_sum"`
	Difference int64  `json:"difference"`
	Consistent bool   `json:"consistent"`
}

// ledgerEntry 单个作用域的一笔记账
type ledgerEntry struct {
	UserID      string
	ShopID      string
	OrderID     *string
	RewardID    *string
	Points      int64
	Type        string
	Reference   string
	Description string
}

func (e ledgerEntry) transaction(change int64) *models.LoyaltyTransaction {
	return &models.LoyaltyTransaction{
		UserID:       e.UserID,
		ShopID:       e.ShopID,
		OrderID:      e.OrderID,
		RewardID:     e.RewardID,
		PointsChange: change,
		Type:         e.Type,
		Reference:    e.Reference,
		Description:  e.Description,
	}
}

// NewLoyaltyService 创建积分账本服务
func NewLoyaltyService(
	loyaltyRepo repository.LoyaltyRepository,
	rewardRepo repository.RewardRepository,
	configs LoyaltyConfigProvider,
) *LoyaltyService {
	return &LoyaltyService{
		loyaltyRepo: loyaltyRepo,
		rewardRepo:  rewardRepo,
		configs:     configs,
	}
}

// CalculatePoints 计算订单门店积分与平台通用积分
func CalculatePoints(orderTotal decimal.Decimal, cfg models.LoyaltyConfig) (int64, int64) {
	shopPoints := PointsForTotal(orderTotal, cfg.PointsPerCurrencyUnit)
	var globalPoints int64
	if cfg.ParticipatesInGlobalLoyalty {
		globalPoints = PointsForTotal(orderTotal, constants.GlobalPointsPerCurrencyUnit)
	}
	return shopPoints, globalPoints
}

// OrderEarnedReference 订单积分幂等参考号
func OrderEarnedReference(orderID, shopID string) string {
	if shopID == constants.LoyaltyScopeGlobal {
		return fmt.Sprintf("order:%s:earned:global", orderID)
	}
	return fmt.Sprintf("order:%s:earned:shop:%s", orderID, shopID)
}

// AwardPoints 为订单发放门店积分与通用积分，两个作用域各自独立原子入账
// 部分失败时返回已成功的流水与汇总错误，已成功的作用域不回滚
func (s *LoyaltyService) AwardPoints(userID, shopID, orderID string, shopPoints, globalPoints int64) ([]models.LoyaltyTransaction, error) {
	userID = strings.TrimSpace(userID)
	shopID = strings.TrimSpace(shopID)
	orderID = strings.TrimSpace(orderID)
	if userID == "" || shopID == "" || orderID == "" || shopPoints < 0 || globalPoints < 0 {
		return nil, ErrInvalidLedgerEntry
	}

	scopes := []struct {
		shopID string
		points int64
		desc   string
	}{
		{shopID: shopID, points: shopPoints, desc: "Shop points earned on completed order"},
		{shopID: constants.LoyaltyScopeGlobal, points: globalPoints, desc: "Global points earned on completed order"},
	}

	txns := make([]models.LoyaltyTransaction, 0, len(scopes))
	var errs []error
	for _, scope := range scopes {
		if scope.points == 0 {
			continue
		}
		oid := orderID
		txn, err := s.credit(ledgerEntry{
			UserID:      userID,
			ShopID:      scope.shopID,
			OrderID:     &oid,
			Points:      scope.points,
			Type:        constants.LoyaltyTxnTypeEarned,
			Reference:   OrderEarnedReference(orderID, scope.shopID),
			Description: scope.desc,
		})
		if err != nil {
			logger.Errorw("loyalty_award_scope_failed",
				"order_id", orderID,
				"user_id", userID,
				"scope_shop_id", scope.shopID,
				"points", scope.points,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		txns = append(txns, *txn)
	}
	return txns, errors.Join(errs...)
}

// AwardForOrder 按门店积分配置为已完成订单发放积分
func (s *LoyaltyService) AwardForOrder(ctx context.Context, order *models.Order) ([]models.LoyaltyTransaction, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusCompleted {
		return nil, ErrInvalidOrderStatus
	}
	if s.configs == nil {
		return nil, ErrLedgerUnavailable
	}
	cfg, err := s.configs.GetLoyaltyConfig(ctx, order.ShopID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	shopPoints, globalPoints := CalculatePoints(order.Total.Amount(), *cfg)
	return s.AwardPoints(order.CustomerID, order.ShopID, order.ID, shopPoints, globalPoints)
}

// RedeemReward 使用积分兑换奖励，扣减为单条条件更新，余额不会为负
func (s *LoyaltyService) RedeemReward(userID, rewardID string) (*RedeemResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidLedgerEntry
	}
	reward, err := s.rewardRepo.GetByID(rewardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	if !reward.IsActive {
		return nil, ErrRewardInactive
	}

	rid := reward.ID
	entry := ledgerEntry{
		UserID:      userID,
		ShopID:      reward.ShopID,
		RewardID:    &rid,
		Points:      reward.PointsRequired,
		Type:        constants.LoyaltyTxnTypeRedeemed,
		Reference:   fmt.Sprintf("redeem:%s:%s", reward.ID, uuid.NewString()),
		Description: fmt.Sprintf("Redeemed reward: %s", reward.Name),
	}
	txn, balance, err := s.debit(entry)
	if err != nil {
		return nil, err
	}
	logger.Infow("loyalty_reward_redeemed",
		"user_id", userID,
		"reward_id", reward.ID,
		"scope_shop_id", reward.ShopID,
		"points", reward.PointsRequired,
		"balance", balance,
	)
	return &RedeemResult{Balance: balance, Transaction: txn, Reward: reward}, nil
}

// GetBalance 获取作用域积分，无余额行时为 0
func (s *LoyaltyService) GetBalance(userID, shopID string) (int64, error) {
	balance, err := s.loyaltyRepo.GetBalance(strings.TrimSpace(userID), strings.TrimSpace(shopID))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if balance == nil {
		return 0, nil
	}
	return balance.Points, nil
}

// ListBalances 获取用户全部作用域余额
func (s *LoyaltyService) ListBalances(userID string) ([]models.LoyaltyBalance, error) {
	balances, err := s.loyaltyRepo.ListBalances(strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return balances, nil
}

// ListTransactions 查询积分流水
func (s *LoyaltyService) ListTransactions(filter repository.LoyaltyTransactionListFilter) ([]models.LoyaltyTransaction, int64, error) {
	txns, total, err := s.loyaltyRepo.ListTransactions(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return txns, total, nil
}

// AdjustPoints 管理员调整积分，正数入账，负数按条件扣减
func (s *LoyaltyService) AdjustPoints(input LoyaltyAdjustInput) (*models.LoyaltyTransaction, int64, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" || input.Delta == 0 {
		return nil, 0, ErrInvalidLedgerEntry
	}
	entry := ledgerEntry{
		UserID:      userID,
		ShopID:      strings.TrimSpace(input.ShopID),
		Type:        constants.LoyaltyTxnTypeAdjusted,
		Reference:   buildLedgerReference("adjust", input.Reference),
		Description: cleanLedgerDescription(input.Reason, "Manual adjustment"),
	}
	if input.Delta > 0 {
		entry.Points = input.Delta
		txn, err := s.credit(entry)
		if err != nil {
			return nil, 0, err
		}
		balance, err := s.GetBalance(entry.UserID, entry.ShopID)
		return txn, balance, err
	}
	entry.Points = -input.Delta
	existing, err := s.loyaltyRepo.GetTransactionByReference(entry.Reference)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if existing != nil {
		balance, err := s.GetBalance(entry.UserID, entry.ShopID)
		return existing, balance, err
	}
	return s.debit(entry)
}

// ExpirePoints 过期积分，最多扣减至当前余额
func (s *LoyaltyService) ExpirePoints(input LoyaltyExpireInput) (*models.LoyaltyTransaction, int64, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" || input.Points <= 0 {
		return nil, 0, ErrInvalidLedgerEntry
	}
	entry := ledgerEntry{
		UserID:      userID,
		ShopID:      strings.TrimSpace(input.ShopID),
		Type:        constants.LoyaltyTxnTypeExpired,
		Reference:   buildLedgerReference("expire", input.Reference),
		Description: cleanLedgerDescription(input.Reason, "Points expired"),
	}
	existing, err := s.loyaltyRepo.GetTransactionByReference(entry.Reference)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if existing != nil {
		balance, err := s.GetBalance(entry.UserID, entry.ShopID)
		return existing, balance, err
	}

	for attempt := 1; attempt <= maxLedgerAttempts; attempt++ {
		available, err := s.GetBalance(entry.UserID, entry.ShopID)
		if err != nil {
			return nil, 0, err
		}
		amount := input.Points
		if amount > available {
			amount = available
		}
		if amount <= 0 {
			return nil, available, nil
		}
		entry.Points = amount
		txn, balance, err := s.debit(entry)
		if errors.Is(err, ErrInsufficientBalance) {
			continue
		}
		return txn, balance, err
	}
	return nil, 0, ErrConcurrencyConflict
}

// Reconcile 对账：比较余额与流水合计
func (s *LoyaltyService) Reconcile(userID, shopID string) (*ReconcileResult, error) {
	userID = strings.TrimSpace(userID)
	shopID = strings.TrimSpace(shopID)
	if userID == "" {
		return nil, ErrInvalidLedgerEntry
	}
	balance, err := s.GetBalance(userID, shopID)
	if err != nil {
		return nil, err
	}
	sum, err := s.loyaltyRepo.SumPointsChange(userID, shopID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	result := &ReconcileResult{
		UserID:     userID,
		ShopID:     shopID,
		Balance:    balance,
		LedgerSum:  sum,
		Difference: balance - sum,
		Consistent: balance == sum,
	}
	if !result.Consistent {
		logger.Warnw("loyalty_reconcile_mismatch",
			"user_id", userID,
			"scope_shop_id", shopID,
			"balance", balance,
			"ledger_sum", sum,
		)
	}
	return result, nil
}

// Stats 统计作用域积分概况，shopID 为空表示平台通用积分
func (s *LoyaltyService) Stats(shopID string) (*repository.LoyaltyScopeStats, error) {
	stats, err := s.loyaltyRepo.ScopeStats(strings.TrimSpace(shopID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return stats, nil
}

// credit 入账：参考号已存在时直接返回原流水；并发创建余额行冲突时重试
func (s *LoyaltyService) credit(entry ledgerEntry) (*models.LoyaltyTransaction, error) {
	if entry.Points <= 0 || entry.Reference == "" {
		return nil, ErrInvalidLedgerEntry
	}
	var lastErr error
	for attempt := 1; attempt <= maxLedgerAttempts; attempt++ {
		existing, err := s.loyaltyRepo.GetTransactionByReference(entry.Reference)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
		}
		if existing != nil {
			logger.Debugw("loyalty_credit_already_applied", "reference", entry.Reference)
			return existing, nil
		}

		txn := entry.transaction(entry.Points)
		err = s.loyaltyRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.loyaltyRepo.WithTx(tx)
			if err := repo.CreateTransaction(txn); err != nil {
				return err
			}
			updated, err := repo.IncrementBalance(entry.UserID, entry.ShopID, entry.Points)
			if err != nil {
				return err
			}
			if updated {
				return nil
			}
			return repo.CreateBalance(&models.LoyaltyBalance{
				UserID: entry.UserID,
				ShopID: entry.ShopID,
				Points: entry.Points,
			})
		})
		if err == nil {
			return txn, nil
		}
		lastErr = err
		logger.Warnw("loyalty_credit_retry",
			"reference", entry.Reference,
			"attempt", attempt,
			"error", err,
		)
	}
	return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, lastErr)
}

// debit 扣减：条件更新未命中即余额不足，不写流水；返回扣减后的余额
func (s *LoyaltyService) debit(entry ledgerEntry) (*models.LoyaltyTransaction, int64, error) {
	if entry.Points < 0 || entry.Reference == "" {
		return nil, 0, ErrInvalidLedgerEntry
	}
	txn := entry.transaction(-entry.Points)
	var balance int64
	err := s.loyaltyRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.loyaltyRepo.WithTx(tx)
		if entry.Points > 0 {
			ok, err := repo.DecrementBalanceIfSufficient(entry.UserID, entry.ShopID, entry.Points)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientBalance
			}
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return err
		}
		current, err := repo.GetBalance(entry.UserID, entry.ShopID)
		if err != nil {
			return err
		}
		if current != nil {
			balance = current.Points
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return txn, balance, nil
}

func buildLedgerReference(prefix, reference string) string {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		reference = uuid.NewString()
	}
	return fmt.Sprintf("%s:%s", prefix, reference)
}

func cleanLedgerDescription(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if len([]rune(raw)) > 200 {
		return string([]rune(raw)[:200])
	}
	return raw
}
