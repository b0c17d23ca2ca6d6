package service

import (
	"fmt"
	"strings"

	"github.com/loyalcup/backend/internal/models"

	"github.com/shopspring/decimal"
)

// 金额保留位数
const currencyPlaces = 2

// OrderTotals 订单金额汇总
type OrderTotals struct {
	Subtotal models.Money `json:"subtotal"`
	Tax      models.Money `json:"tax"`
	Total    models.Money `json:"total"`
}

// roundCurrency 金额四舍五入到 2 位小数（half-up）
func roundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(currencyPlaces)
}

// roundPoints 积分四舍五入到整数（half-up）
func roundPoints(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}

// PriceItem 计算含自定义项的单价
func PriceItem(basePrice decimal.Decimal, customizations []models.Customization) (decimal.Decimal, error) {
	if basePrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: 基础价格不能为负数", ErrInvalidOrderItem)
	}
	price := basePrice
	for _, c := range customizations {
		additional := c.AdditionalPrice.Decimal
		if additional.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: 自定义项 %s 价格不能为负数", ErrInvalidOrderItem, c.Name)
		}
		price = price.Add(additional)
	}
	return roundCurrency(price), nil
}

// PriceOrderItem 计算订单项单价与行合计并写回
func PriceOrderItem(item *models.OrderItem) error {
	if item == nil {
		return ErrInvalidOrderItem
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: 数量至少为 1", ErrInvalidOrderItem)
	}
	linePrice, err := PriceItem(item.UnitBasePrice.Decimal, item.Customizations)
	if err != nil {
		return err
	}
	item.LinePrice = models.NewMoneyFromDecimal(linePrice)
	item.LineTotal = models.NewMoneyFromDecimal(linePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	return nil
}

// ComputeTotals 计算订单小计、税费与合计，每行先取整再汇总
func ComputeTotals(items []models.OrderItem, taxRate decimal.Decimal) (OrderTotals, error) {
	if taxRate.IsNegative() {
		return OrderTotals{}, ErrInvalidTaxRate
	}
	subtotal := decimal.Zero
	for i := range items {
		item := items[i]
		if err := PriceOrderItem(&item); err != nil {
			return OrderTotals{}, err
		}
		subtotal = subtotal.Add(item.LineTotal.Amount())
	}
	subtotal = roundCurrency(subtotal)
	tax := roundCurrency(subtotal.Mul(taxRate))
	return OrderTotals{
		Subtotal: models.NewMoneyFromDecimal(subtotal),
		Tax:      models.NewMoneyFromDecimal(tax),
		Total:    models.NewMoneyFromDecimal(subtotal.Add(tax)),
	}, nil
}

// PointsForTotal 按倍率预估积分，倍率非正数时为 0
func PointsForTotal(total decimal.Decimal, pointsPerCurrencyUnit int64) int64 {
	if pointsPerCurrencyUnit <= 0 || total.IsNegative() {
		return 0
	}
	return roundPoints(total.Mul(decimal.NewFromInt(pointsPerCurrencyUnit)))
}

// ParseTaxRate 解析税率配置
func ParseTaxRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, ErrInvalidTaxRate
	}
	return rate, nil
}
