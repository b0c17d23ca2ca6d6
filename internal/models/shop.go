package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop 门店表
type Shop struct {
	ID                          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`               // 主键
	OwnerID                     string    `gorm:"type:varchar(36);index;not null" json:"owner_id"`     // 店主用户ID
	Name                        string    `gorm:"type:varchar(255);not null" json:"name"`              // 名称
	Description                 string    `gorm:"type:text" json:"description"`                        // 描述
	Address                     string    `gorm:"type:varchar(255)" json:"address"`                    // 地址
	City                        string    `gorm:"type:varchar(100);index" json:"city"`                 // 城市
	State                       string    `gorm:"type:varchar(100)" json:"state"`                      // 州/省
	Phone                       string    `gorm:"type:varchar(50)" json:"phone"`                       // 电话
	Hours                       JSON      `gorm:"type:json" json:"hours"`                              // 营业时间
	Status                      string    `gorm:"type:varchar(32);index;not null" json:"status"`       // 状态 active/pending_approval/suspended
	LoyaltyPointsPerDollar      int64     `gorm:"not null;default:0" json:"loyalty_points_per_dollar"` // 每货币单位积分
	ParticipatesInGlobalLoyalty bool      `gorm:"not null" json:"participates_in_global_loyalty"`      // 是否参与平台通用积分
	CreatedAt                   time.Time `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt                   time.Time `json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (Shop) TableName() string {
	return "shops"
}

// BeforeCreate 生成主键
func (s *Shop) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// LoyaltyConfig 门店积分配置快照
type LoyaltyConfig struct {
	ShopID                      string `json:"shop_id"`
	PointsPerCurrencyUnit       int64  `json:"points_per_currency_unit"`
	ParticipatesInGlobalLoyalty bool   `json:"participates_in_global_loyalty"`
}

// LoyaltyConfig 提取门店积分配置
func (s *Shop) LoyaltyConfig() LoyaltyConfig {
	if s == nil {
		return LoyaltyConfig{}
	}
	return LoyaltyConfig{
		ShopID:                      s.ID,
		PointsPerCurrencyUnit:       s.LoyaltyPointsPerDollar,
		ParticipatesInGlobalLoyalty: s.ParticipatesInGlobalLoyalty,
	}
}

func ensureID(id *string) {
	if id != nil && *id == "" {
		*id = uuid.NewString()
	}
}
