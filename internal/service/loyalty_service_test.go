package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticLoyaltyConfigs struct {
	mu      sync.Mutex
	configs map[string]models.LoyaltyConfig
	err     error
}

func (s *staticLoyaltyConfigs) GetLoyaltyConfig(_ context.Context, shopID string) (*models.LoyaltyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cfg, ok := s.configs[shopID]
	if !ok {
		return nil, ErrShopNotFound
	}
	return &cfg, nil
}

func (s *staticLoyaltyConfigs) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func setupLoyaltyServiceTest(t *testing.T) (*LoyaltyService, *gorm.DB, *staticLoyaltyConfigs) {
	t.Helper()
	db := openServiceTestDB(t, "loyalty_service_test")
	configs := &staticLoyaltyConfigs{configs: map[string]models.LoyaltyConfig{
		"shop-1": {ShopID: "shop-1", PointsPerCurrencyUnit: 10, ParticipatesInGlobalLoyalty: true},
		"shop-2": {ShopID: "shop-2", PointsPerCurrencyUnit: 5, ParticipatesInGlobalLoyalty: false},
	}}
	svc := NewLoyaltyService(
		repository.NewLoyaltyRepository(db),
		repository.NewRewardRepository(db),
		configs,
	)
	return svc, db, configs
}

func seedBalance(t *testing.T, svc *LoyaltyService, userID, shopID string, points int64) {
	t.Helper()
	if _, _, err := svc.AdjustPoints(LoyaltyAdjustInput{UserID: userID, ShopID: shopID, Delta: points, Reason: "seed"}); err != nil {
		t.Fatalf("seed balance failed: %v", err)
	}
}

func createReward(t *testing.T, db *gorm.DB, shopID string, points int64, active bool) *models.LoyaltyReward {
	t.Helper()
	reward := &models.LoyaltyReward{
		ShopID:         shopID,
		Name:           "Free drip coffee",
		PointsRequired: points,
		IsActive:       active,
	}
	if err := db.Create(reward).Error; err != nil {
		t.Fatalf("create reward failed: %v", err)
	}
	return reward
}

func countTransactions(t *testing.T, db *gorm.DB, userID, txnType string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.LoyaltyTransaction{}).
		Where("user_id = ? AND type = ?", userID, txnType).
		Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	return count
}

func TestCalculatePointsReferenceOrder(t *testing.T) {
	total := mustDecimal(t, "23.22")
	shopPoints, globalPoints := CalculatePoints(total, models.LoyaltyConfig{PointsPerCurrencyUnit: 10, ParticipatesInGlobalLoyalty: true})
	if shopPoints != 232 || globalPoints != 23 {
		t.Fatalf("want 232/23 got %d/%d", shopPoints, globalPoints)
	}
	shopPoints, globalPoints = CalculatePoints(total, models.LoyaltyConfig{PointsPerCurrencyUnit: 10})
	if shopPoints != 232 || globalPoints != 0 {
		t.Fatalf("non participating shop want 232/0 got %d/%d", shopPoints, globalPoints)
	}
}

func TestLoyaltyServiceGetBalanceAbsentIsZero(t *testing.T) {
	svc, _, _ := setupLoyaltyServiceTest(t)
	points, err := svc.GetBalance("nobody", "shop-1")
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if points != 0 {
		t.Fatalf("absent balance want 0 got %d", points)
	}
}

func TestLoyaltyServiceAwardPointsIsIdempotent(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)

	txns, err := svc.AwardPoints("user-1", "shop-1", "order-1", 232, 23)
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("want 2 transactions got %d", len(txns))
	}

	again, err := svc.AwardPoints("user-1", "shop-1", "order-1", 232, 23)
	if err != nil {
		t.Fatalf("second award failed: %v", err)
	}
	if len(again) != 2 || again[0].ID != txns[0].ID || again[1].ID != txns[1].ID {
		t.Fatalf("second award should return the original transactions")
	}

	shopPoints, _ := svc.GetBalance("user-1", "shop-1")
	globalPoints, _ := svc.GetBalance("user-1", constants.LoyaltyScopeGlobal)
	if shopPoints != 232 || globalPoints != 23 {
		t.Fatalf("balances want 232/23 got %d/%d", shopPoints, globalPoints)
	}
	if got := countTransactions(t, db, "user-1", constants.LoyaltyTxnTypeEarned); got != 2 {
		t.Fatalf("earned transactions want 2 got %d", got)
	}

	for _, scope := range []string{"shop-1", constants.LoyaltyScopeGlobal} {
		result, err := svc.Reconcile("user-1", scope)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if !result.Consistent {
			t.Fatalf("scope %q should reconcile: %+v", scope, result)
		}
	}
}

func TestLoyaltyServiceAwardPointsPartialFailure(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)

	var failGlobal atomic.Bool
	failGlobal.Store(true)
	if err := db.Callback().Create().Before("gorm:create").Register("test:fail_global_balance", func(tx *gorm.DB) {
		balance, ok := tx.Statement.Dest.(*models.LoyaltyBalance)
		if ok && balance.ShopID == constants.LoyaltyScopeGlobal && failGlobal.Load() {
			tx.AddError(errors.New("global balance store down"))
		}
	}); err != nil {
		t.Fatalf("register create callback failed: %v", err)
	}

	txns, err := svc.AwardPoints("user-1", "shop-1", "order-1", 232, 23)
	if !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("partial award want ErrLedgerUnavailable got %v", err)
	}
	if len(txns) != 1 || txns[0].ShopID != "shop-1" {
		t.Fatalf("want only the shop transaction, got %+v", txns)
	}
	shopPoints, _ := svc.GetBalance("user-1", "shop-1")
	globalPoints, _ := svc.GetBalance("user-1", constants.LoyaltyScopeGlobal)
	if shopPoints != 232 || globalPoints != 0 {
		t.Fatalf("after partial award want 232/0 got %d/%d", shopPoints, globalPoints)
	}

	failGlobal.Store(false)
	replayed, err := svc.AwardPoints("user-1", "shop-1", "order-1", 232, 23)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(replayed) != 2 || replayed[0].ID != txns[0].ID {
		t.Fatalf("replay should reuse the shop transaction and add the global one, got %+v", replayed)
	}
	shopPoints, _ = svc.GetBalance("user-1", "shop-1")
	globalPoints, _ = svc.GetBalance("user-1", constants.LoyaltyScopeGlobal)
	if shopPoints != 232 || globalPoints != 23 {
		t.Fatalf("after replay want 232/23 got %d/%d", shopPoints, globalPoints)
	}
	if got := countTransactions(t, db, "user-1", constants.LoyaltyTxnTypeEarned); got != 2 {
		t.Fatalf("earned transactions want 2 got %d", got)
	}
	for _, scope := range []string{"shop-1", constants.LoyaltyScopeGlobal} {
		result, err := svc.Reconcile("user-1", scope)
		if err != nil {
			t.Fatalf("reconcile failed: %v", err)
		}
		if !result.Consistent {
			t.Fatalf("scope %q should reconcile: %+v", scope, result)
		}
	}
}

func TestLoyaltyServiceAwardPointsSkipsZeroScope(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	txns, err := svc.AwardPoints("user-1", "shop-2", "order-2", 50, 0)
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if len(txns) != 1 || txns[0].ShopID != "shop-2" {
		t.Fatalf("want single shop transaction, got %+v", txns)
	}
	var globalRows int64
	db.Model(&models.LoyaltyBalance{}).Where("user_id = ? AND shop_id = ?", "user-1", "").Count(&globalRows)
	if globalRows != 0 {
		t.Fatalf("global balance row should not be created for zero points")
	}
}

func TestLoyaltyServiceAwardPointsRejectsInvalid(t *testing.T) {
	svc, _, _ := setupLoyaltyServiceTest(t)
	if _, err := svc.AwardPoints("", "shop-1", "order-1", 1, 1); !errors.Is(err, ErrInvalidLedgerEntry) {
		t.Fatalf("empty user want ErrInvalidLedgerEntry got %v", err)
	}
	if _, err := svc.AwardPoints("user-1", "shop-1", "order-1", -1, 0); !errors.Is(err, ErrInvalidLedgerEntry) {
		t.Fatalf("negative points want ErrInvalidLedgerEntry got %v", err)
	}
}

func TestLoyaltyServiceAwardForOrder(t *testing.T) {
	svc, _, configs := setupLoyaltyServiceTest(t)
	order := &models.Order{
		ID:         "order-9",
		ShopID:     "shop-1",
		CustomerID: "user-9",
		Status:     constants.OrderStatusCompleted,
		Total:      models.MustMoney("23.22"),
	}
	txns, err := svc.AwardForOrder(context.Background(), order)
	if err != nil {
		t.Fatalf("award for order failed: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("want 2 transactions got %d", len(txns))
	}

	order.Status = constants.OrderStatusReady
	if _, err := svc.AwardForOrder(context.Background(), order); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("non completed order want ErrInvalidOrderStatus got %v", err)
	}

	order.Status = constants.OrderStatusCompleted
	order.ID = "order-10"
	configs.setErr(errors.New("connection refused"))
	if _, err := svc.AwardForOrder(context.Background(), order); !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("config failure want ErrLedgerUnavailable got %v", err)
	}
}

func TestLoyaltyServiceRedeemInsufficientBalance(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	seedBalance(t, svc, "user-1", "shop-1", 80)
	reward := createReward(t, db, "shop-1", 100, true)

	if _, err := svc.RedeemReward("user-1", reward.ID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got %v", err)
	}
	points, _ := svc.GetBalance("user-1", "shop-1")
	if points != 80 {
		t.Fatalf("balance should stay 80 got %d", points)
	}
	if got := countTransactions(t, db, "user-1", constants.LoyaltyTxnTypeRedeemed); got != 0 {
		t.Fatalf("no redeemed transaction should be written, got %d", got)
	}
}

func TestLoyaltyServiceRedeemSuccess(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	seedBalance(t, svc, "user-1", "shop-1", 150)
	reward := createReward(t, db, "shop-1", 100, true)

	result, err := svc.RedeemReward("user-1", reward.ID)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Balance != 50 {
		t.Fatalf("new balance want 50 got %d", result.Balance)
	}
	if result.Transaction.PointsChange != -100 || result.Transaction.Type != constants.LoyaltyTxnTypeRedeemed {
		t.Fatalf("unexpected transaction: %+v", result.Transaction)
	}
	if result.Transaction.RewardID == nil || *result.Transaction.RewardID != reward.ID {
		t.Fatalf("transaction should reference reward")
	}
	reconcile, err := svc.Reconcile("user-1", "shop-1")
	if err != nil || !reconcile.Consistent {
		t.Fatalf("ledger should reconcile: %+v err=%v", reconcile, err)
	}
}

func TestLoyaltyServiceRedeemRejectsMissingAndInactive(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	if _, err := svc.RedeemReward("user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing reward want ErrNotFound got %v", err)
	}
	reward := createReward(t, db, "shop-1", 10, false)
	_, err := svc.RedeemReward("user-1", reward.ID)
	if !errors.Is(err, ErrRewardInactive) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("inactive reward want ErrRewardInactive/ErrInvalidState got %v", err)
	}
}

func TestLoyaltyServiceRedeemGlobalReward(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	if _, err := svc.AwardPoints("user-1", "shop-1", "order-1", 232, 23); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	reward := createReward(t, db, constants.LoyaltyScopeGlobal, 20, true)
	result, err := svc.RedeemReward("user-1", reward.ID)
	if err != nil {
		t.Fatalf("redeem global reward failed: %v", err)
	}
	if result.Balance != 3 {
		t.Fatalf("global balance want 3 got %d", result.Balance)
	}
	shopPoints, _ := svc.GetBalance("user-1", "shop-1")
	if shopPoints != 232 {
		t.Fatalf("shop balance must be untouched, got %d", shopPoints)
	}
}

func TestLoyaltyServiceAdjustPoints(t *testing.T) {
	svc, _, _ := setupLoyaltyServiceTest(t)
	txn, balance, err := svc.AdjustPoints(LoyaltyAdjustInput{UserID: "user-1", ShopID: "shop-1", Delta: 40, Reference: "ticket-7"})
	if err != nil {
		t.Fatalf("adjust up failed: %v", err)
	}
	if balance != 40 || txn.Type != constants.LoyaltyTxnTypeAdjusted {
		t.Fatalf("unexpected adjust result: balance=%d txn=%+v", balance, txn)
	}
	again, balance, err := svc.AdjustPoints(LoyaltyAdjustInput{UserID: "user-1", ShopID: "shop-1", Delta: 40, Reference: "ticket-7"})
	if err != nil || again.ID != txn.ID || balance != 40 {
		t.Fatalf("repeated reference should be idempotent: balance=%d err=%v", balance, err)
	}

	if _, _, err := svc.AdjustPoints(LoyaltyAdjustInput{UserID: "user-1", ShopID: "shop-1", Delta: -50}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("over debit want ErrInsufficientBalance got %v", err)
	}
	_, balance, err = svc.AdjustPoints(LoyaltyAdjustInput{UserID: "user-1", ShopID: "shop-1", Delta: -15})
	if err != nil || balance != 25 {
		t.Fatalf("debit want balance 25 got %d err=%v", balance, err)
	}
	if _, _, err := svc.AdjustPoints(LoyaltyAdjustInput{UserID: "user-1", ShopID: "shop-1"}); !errors.Is(err, ErrInvalidLedgerEntry) {
		t.Fatalf("zero delta want ErrInvalidLedgerEntry got %v", err)
	}
}

func TestLoyaltyServiceExpirePointsCapsAtBalance(t *testing.T) {
	svc, _, _ := setupLoyaltyServiceTest(t)
	seedBalance(t, svc, "user-1", "shop-1", 30)

	txn, balance, err := svc.ExpirePoints(LoyaltyExpireInput{UserID: "user-1", ShopID: "shop-1", Points: 100, Reference: "2026-q1"})
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if txn == nil || txn.PointsChange != -30 || txn.Type != constants.LoyaltyTxnTypeExpired {
		t.Fatalf("unexpected expire txn: %+v", txn)
	}
	if balance != 0 {
		t.Fatalf("balance want 0 got %d", balance)
	}
	txn, balance, err = svc.ExpirePoints(LoyaltyExpireInput{UserID: "user-1", ShopID: "shop-2", Points: 10})
	if err != nil || txn != nil || balance != 0 {
		t.Fatalf("expire on empty scope should be a no-op: txn=%v balance=%d err=%v", txn, balance, err)
	}
}

func TestLoyaltyServiceReconcileDetectsDrift(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	seedBalance(t, svc, "user-1", "shop-1", 60)
	if err := db.Model(&models.LoyaltyBalance{}).
		Where("user_id = ? AND shop_id = ?", "user-1", "shop-1").
		Update("points", 75).Error; err != nil {
		t.Fatalf("tamper balance failed: %v", err)
	}
	result, err := svc.Reconcile("user-1", "shop-1")
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if result.Consistent || result.Difference != 15 {
		t.Fatalf("expected drift of 15, got %+v", result)
	}
}

func TestLoyaltyServiceStats(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	if _, err := svc.AwardPoints("user-1", "shop-1", "order-1", 232, 23); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if _, err := svc.AwardPoints("user-2", "shop-1", "order-2", 100, 10); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	reward := createReward(t, db, "shop-1", 100, true)
	if _, err := svc.RedeemReward("user-2", reward.ID); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	stats, err := svc.Stats("shop-1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Members != 2 || stats.PointsIssued != 332 || stats.PointsRedeemed != 100 || stats.PointsOutstanding != 232 {
		t.Fatalf("unexpected shop stats: %+v", stats)
	}
	global, err := svc.Stats(constants.LoyaltyScopeGlobal)
	if err != nil {
		t.Fatalf("global stats failed: %v", err)
	}
	if global.PointsIssued != 33 || global.Members != 2 {
		t.Fatalf("unexpected global stats: %+v", global)
	}
}

func TestLoyaltyServiceListTransactionsStoreFailure(t *testing.T) {
	svc, db, _ := setupLoyaltyServiceTest(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	_ = sqlDB.Close()

	_, _, err = svc.ListTransactions(repository.LoyaltyTransactionListFilter{UserID: "user-1"})
	if !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("store failure want ErrLedgerUnavailable got %v", err)
	}
}
