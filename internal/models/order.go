package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Order 订单表（明细与金额创建后不可变，仅状态流转）
type Order struct {
	ID                  string     `gorm:"primaryKey;type:varchar(36)" json:"id"`                 // 主键
	ShopID              string     `gorm:"type:varchar(36);index;not null" json:"shop_id"`        // 门店ID
	CustomerID          string     `gorm:"type:varchar(36);index;not null" json:"customer_id"`    // 顾客ID
	Status              string     `gorm:"type:varchar(32);index;not null" json:"status"`         // 订单状态
	Subtotal            Money      `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"` // 小计
	Tax                 Money      `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`      // 税费
	Total               Money      `gorm:"type:decimal(10,2);not null;default:0" json:"total"`    // 合计
	LoyaltyPointsEarned int64      `gorm:"not null;default:0" json:"loyalty_points_earned"`       // 下单时预估的门店积分，实际入账以积分流水为准
	GlobalPointsEarned  int64      `gorm:"not null;default:0" json:"global_points_earned"`        // 下单时预估的通用积分，实际入账以积分流水为准
	Notes               string     `gorm:"type:text" json:"notes,omitempty"`                      // 备注
	CompletedAt         *time.Time `gorm:"index" json:"completed_at,omitempty"`                   // 完成时间
	CancelledAt         *time.Time `gorm:"index" json:"cancelled_at,omitempty"`                   // 取消时间
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt           time.Time  `json:"updated_at"`                                            // 更新时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate 生成主键
func (o *Order) BeforeCreate(_ *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// Customization 订单项已选自定义项
type Customization struct {
	Name            string `json:"name"`
	AdditionalPrice Money  `json:"additional_price"`
}

// Customizations 自定义项列表（JSON 存储，保持顺序）
type Customizations []Customization

// Value 实现 driver.Valuer 接口
func (c Customizations) Value() (driver.Value, error) {
	if c == nil {
		return marshalJSONColumn([]Customization{})
	}
	return marshalJSONColumn([]Customization(c))
}

// Scan 实现 sql.Scanner 接口
func (c *Customizations) Scan(value interface{}) error {
	if value == nil {
		*c = Customizations{}
		return nil
	}
	return scanJSONColumn(value, c)
}

// OrderItem 订单项表
type OrderItem struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`                        // 主键
	OrderID        string         `gorm:"type:varchar(36);index;not null" json:"order_id"`              // 订单ID
	MenuItemID     *string        `gorm:"type:varchar(36);index" json:"menu_item_id,omitempty"`         // 菜单商品ID
	Name           string         `gorm:"type:varchar(255)" json:"name"`                                // 下单时商品名
	Quantity       int            `gorm:"not null" json:"quantity"`                                     // 数量
	UnitBasePrice  Money          `gorm:"type:decimal(10,2);not null;default:0" json:"unit_base_price"` // 基础单价
	Customizations Customizations `gorm:"type:json" json:"customizations"`                              // 自定义项
	LinePrice      Money          `gorm:"type:decimal(10,2);not null;default:0" json:"line_price"`      // 含自定义项单价
	LineTotal      Money          `gorm:"type:decimal(10,2);not null;default:0" json:"line_total"`      // 行合计
	CreatedAt      time.Time      `json:"created_at"`                                                   // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// BeforeCreate 生成主键
func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
