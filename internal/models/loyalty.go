package models

import (
	"time"

	"gorm.io/gorm"
)

// LoyaltyBalance 积分余额表，每个 (user_id, shop_id) 作用域唯一一行，shop_id 为空表示平台通用积分
type LoyaltyBalance struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_loyalty_balance_scope,priority:1" json:"user_id"`
	ShopID    string    `gorm:"type:varchar(36);not null;default:'';uniqueIndex:idx_loyalty_balance_scope,priority:2" json:"shop_id,omitempty"`
	Points    int64     `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (LoyaltyBalance) TableName() string {
	return "loyalty_balances"
}

// BeforeCreate 生成主键
func (b *LoyaltyBalance) BeforeCreate(_ *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// IsGlobal 是否为平台通用积分
func (b LoyaltyBalance) IsGlobal() bool {
	return b.ShopID == ""
}

// LoyaltyTransaction 积分流水表（只追加）
type LoyaltyTransaction struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                                                                // 主键
	UserID       string    `gorm:"type:varchar(36);index:idx_loyalty_txn_scope,priority:1;not null" json:"user_id"`                      // 用户ID
	ShopID       string    `gorm:"type:varchar(36);index:idx_loyalty_txn_scope,priority:2;not null;default:''" json:"shop_id,omitempty"` // 门店ID（空为通用积分）
	OrderID      *string   `gorm:"type:varchar(36);index" json:"order_id,omitempty"`                                                     // 关联订单
	RewardID     *string   `gorm:"type:varchar(36);index" json:"reward_id,omitempty"`                                                    // 关联奖励
	PointsChange int64     `gorm:"not null" json:"points_change"`                                                                        // 变动积分（正为增加）
	Type         string    `gorm:"type:varchar(32);index;not null" json:"type"`                                                          // earned/redeemed/adjusted/expired
	Reference    string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"-"`                                                      // 幂等参考号
	Description  string    `gorm:"type:varchar(500)" json:"description,omitempty"`                                                       // 说明
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                                                                              // 创建时间
}

// TableName 指定表名
func (LoyaltyTransaction) TableName() string {
	return "loyalty_transactions"
}

// BeforeCreate 生成主键
func (t *LoyaltyTransaction) BeforeCreate(_ *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// LoyaltyReward 积分奖励表，shop_id 为空表示可用通用积分兑换
type LoyaltyReward struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ShopID         string    `gorm:"type:varchar(36);index;not null;default:''" json:"shop_id,omitempty"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	PointsRequired int64     `gorm:"not null;default:0" json:"points_required"`
	IsActive       bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (LoyaltyReward) TableName() string {
	return "loyalty_rewards"
}

// BeforeCreate 生成主键
func (r *LoyaltyReward) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
