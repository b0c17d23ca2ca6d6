package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// MenuCategory 菜单分类表
type MenuCategory struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ShopID       string    `gorm:"type:varchar(36);index;not null" json:"shop_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (MenuCategory) TableName() string {
	return "menu_categories"
}

// BeforeCreate 生成主键
func (c *MenuCategory) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// MenuItem 菜单商品表
type MenuItem struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`                   // 主键
	ShopID       string    `gorm:"type:varchar(36);index;not null" json:"shop_id"`          // 门店ID
	CategoryID   *string   `gorm:"type:varchar(36);index" json:"category_id,omitempty"`     // 分类ID
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`                  // 名称
	Description  string    `gorm:"type:text" json:"description"`                            // 描述
	BasePrice    Money     `gorm:"type:decimal(10,2);not null;default:0" json:"base_price"` // 基础价格
	ImageURL     string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`            // 图片
	IsAvailable  bool      `gorm:"not null;index" json:"is_available"`                      // 是否可售
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`                 // 排序
	CreatedAt    time.Time `json:"created_at"`                                              // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (MenuItem) TableName() string {
	return "menu_items"
}

// BeforeCreate 生成主键
func (i *MenuItem) BeforeCreate(_ *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// CustomizationOption 自定义选项
type CustomizationOption struct {
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// CustomizationOptions 自定义选项列表（JSON 存储）
type CustomizationOptions []CustomizationOption

// Value 实现 driver.Valuer 接口
func (o CustomizationOptions) Value() (driver.Value, error) {
	if o == nil {
		return marshalJSONColumn([]CustomizationOption{})
	}
	return marshalJSONColumn([]CustomizationOption(o))
}

// Scan 实现 sql.Scanner 接口
func (o *CustomizationOptions) Scan(value interface{}) error {
	if value == nil {
		*o = CustomizationOptions{}
		return nil
	}
	return scanJSONColumn(value, o)
}

// Find 按名称查找选项
func (o CustomizationOptions) Find(name string) (CustomizationOption, bool) {
	for _, option := range o {
		if option.Name == name {
			return option, true
		}
	}
	return CustomizationOption{}, false
}

// CustomizationTemplate 门店自定义模板（如杯型、奶类、加料）
type CustomizationTemplate struct {
	ID           string               `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ShopID       string               `gorm:"type:varchar(36);index;not null" json:"shop_id"`
	Name         string               `gorm:"type:varchar(255);not null" json:"name"`
	Type         string               `gorm:"type:varchar(32);not null" json:"type"` // single_select / multi_select
	IsRequired   bool                 `gorm:"not null" json:"is_required"`
	Options      CustomizationOptions `gorm:"type:json" json:"options"`
	DisplayOrder int                  `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// TableName 指定表名
func (CustomizationTemplate) TableName() string {
	return "customization_templates"
}

// BeforeCreate 生成主键
func (t *CustomizationTemplate) BeforeCreate(_ *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
