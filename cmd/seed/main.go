package main

import (
	"errors"
	"log"

	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/logger"
	"github.com/loyalcup/backend/internal/models"

	"gorm.io/gorm"
)

type seedItem struct {
	Category string
	Name     string
	Price    string
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		return seed(tx, stdLog)
	}); err != nil {
		stdLog.Fatalf("Seed failed: %v", err)
	}
	stdLog.Printf("Seed completed")
}

func seed(tx *gorm.DB, stdLog *log.Logger) error {
	// 示例门店
	shop := models.Shop{
		OwnerID:     "00000000-0000-0000-0000-000000000001",
		Name:        "Demo Roasters",
		Description: "Neighborhood espresso bar",
		Address:     "1 Main Street",
		City:        "Portland",
		State:       "OR",
		Phone:       "+1 503 555 0100",
		Hours: models.JSON{
			"mon-fri": "07:00-18:00",
			"sat-sun": "08:00-16:00",
		},
		Status:                      constants.ShopStatusActive,
		LoyaltyPointsPerDollar:      10,
		ParticipatesInGlobalLoyalty: true,
	}
	var existing models.Shop
	err := tx.Where("name = ?", shop.Name).First(&existing).Error
	if err == nil {
		stdLog.Printf("Shop already exists: %s (%s)", existing.Name, existing.ID)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := tx.Create(&shop).Error; err != nil {
		return err
	}
	stdLog.Printf("Created shop: %s (%s)", shop.Name, shop.ID)

	// 菜单分类
	categoryIDs := map[string]string{}
	for i, name := range []string{"Espresso", "Brewed", "Bakery"} {
		category := models.MenuCategory{ShopID: shop.ID, Name: name, DisplayOrder: i}
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
		categoryIDs[name] = category.ID
	}

	// 菜单商品
	items := []seedItem{
		{Category: "Espresso", Name: "Latte", Price: "4.50"},
		{Category: "Espresso", Name: "Cappuccino", Price: "4.25"},
		{Category: "Espresso", Name: "Americano", Price: "3.50"},
		{Category: "Brewed", Name: "Drip Coffee", Price: "2.75"},
		{Category: "Brewed", Name: "Cold Brew", Price: "4.00"},
		{Category: "Bakery", Name: "Croissant", Price: "3.25"},
		{Category: "Bakery", Name: "Blueberry Muffin", Price: "3.00"},
	}
	for i, item := range items {
		categoryID := categoryIDs[item.Category]
		menuItem := models.MenuItem{
			ShopID:       shop.ID,
			CategoryID:   &categoryID,
			Name:         item.Name,
			BasePrice:    models.MustMoney(item.Price),
			IsAvailable:  true,
			DisplayOrder: i,
		}
		if err := tx.Create(&menuItem).Error; err != nil {
			return err
		}
	}

	// 自定义模板
	templates := []models.CustomizationTemplate{
		{
			ShopID:     shop.ID,
			Name:       "Size",
			Type:       constants.CustomizationTypeSingleSelect,
			IsRequired: true,
			Options: models.CustomizationOptions{
				{Name: "Small", Price: models.MustMoney("0")},
				{Name: "Medium", Price: models.MustMoney("0.50")},
				{Name: "Large", Price: models.MustMoney("1.00")},
			},
		},
		{
			ShopID: shop.ID,
			Name:   "Milk",
			Type:   constants.CustomizationTypeSingleSelect,
			Options: models.CustomizationOptions{
				{Name: "Whole", Price: models.MustMoney("0")},
				{Name: "Oat", Price: models.MustMoney("0.75")},
				{Name: "Almond", Price: models.MustMoney("0.75")},
			},
			DisplayOrder: 1,
		},
		{
			ShopID: shop.ID,
			Name:   "Extras",
			Type:   constants.CustomizationTypeMultiSelect,
			Options: models.CustomizationOptions{
				{Name: "Extra shot", Price: models.MustMoney("0.75")},
				{Name: "Vanilla syrup", Price: models.MustMoney("0.50")},
				{Name: "Caramel drizzle", Price: models.MustMoney("0.50")},
			},
			DisplayOrder: 2,
		},
	}
	for i := range templates {
		if err := tx.Create(&templates[i]).Error; err != nil {
			return err
		}
	}

	// 门店奖励与平台通用奖励
	rewards := []models.LoyaltyReward{
		{ShopID: shop.ID, Name: "Free drip coffee", Description: "Any size", PointsRequired: 300, IsActive: true},
		{ShopID: shop.ID, Name: "Free latte", Description: "Any milk, any size", PointsRequired: 500, IsActive: true},
		{ShopID: constants.LoyaltyScopeGlobal, Name: "Free pastry anywhere", Description: "Redeem at any participating shop", PointsRequired: 50, IsActive: true},
	}
	for i := range rewards {
		if err := tx.Create(&rewards[i]).Error; err != nil {
			return err
		}
	}
	stdLog.Printf("Seeded %d menu items, %d templates, %d rewards", len(items), len(templates), len(rewards))
	return nil
}
