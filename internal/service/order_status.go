package service

import (
	"strings"

	"github.com/loyalcup/backend/internal/constants"
)

// orderTransitions 订单状态流转表，未列出的状态为终态
var orderTransitions = map[string][]string{
	constants.OrderStatusPending:   {constants.OrderStatusAccepted, constants.OrderStatusCancelled},
	constants.OrderStatusAccepted:  {constants.OrderStatusPreparing, constants.OrderStatusCancelled},
	constants.OrderStatusPreparing: {constants.OrderStatusReady, constants.OrderStatusCancelled},
	constants.OrderStatusReady:     {constants.OrderStatusPickedUp},
	constants.OrderStatusPickedUp:  {constants.OrderStatusCompleted},
}

var knownOrderStatuses = map[string]struct{}{
	constants.OrderStatusPending:   {},
	constants.OrderStatusAccepted:  {},
	constants.OrderStatusPreparing: {},
	constants.OrderStatusReady:     {},
	constants.OrderStatusPickedUp:  {},
	constants.OrderStatusCompleted: {},
	constants.OrderStatusCancelled: {},
}

// ValidateTransition 判断状态流转是否合法，未知状态一律拒绝
func ValidateTransition(current, requested string) bool {
	allowed, ok := orderTransitions[current]
	if !ok {
		return false
	}
	for _, target := range allowed {
		if target == requested {
			return true
		}
	}
	return false
}

// CanCancel 顾客仅可取消待接单订单
func CanCancel(status string) bool {
	return status == constants.OrderStatusPending
}

// IsTerminalOrderStatus 是否为终态
func IsTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusCompleted || status == constants.OrderStatusCancelled
}

// NormalizeOrderStatus 规范化并校验订单状态
func NormalizeOrderStatus(status string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	_, ok := knownOrderStatuses[normalized]
	return normalized, ok
}

// AllowedNextStatuses 返回当前状态可流转的目标状态
func AllowedNextStatuses(current string) []string {
	allowed := orderTransitions[current]
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}
