package service

import (
	"errors"
	"fmt"
)

// 错误分类，具体错误通过 %w 包装以便 errors.Is 判断类别
var (
	ErrInvalidTransition   = errors.New("订单状态流转不合法")
	ErrInvalidState        = errors.New("当前状态不允许该操作")
	ErrNotFound            = errors.New("记录不存在")
	ErrInsufficientBalance = errors.New("积分余额不足")
	ErrConcurrencyConflict = errors.New("数据已被并发修改，请重试")
	ErrLedgerUnavailable   = errors.New("积分服务暂不可用，请稍后重试")
	ErrForbidden           = errors.New("无权操作该资源")
)

// 订单相关错误
var (
	ErrOrderNotFound         = fmt.Errorf("%w: 订单不存在", ErrNotFound)
	ErrOrderCancelNotAllowed = fmt.Errorf("%w: 门店已接单，无法取消", ErrInvalidState)
	ErrInvalidOrderItem      = errors.New("订单项不合法")
	ErrEmptyOrder            = errors.New("订单至少包含一个商品")
	ErrInvalidTaxRate        = errors.New("税率配置不合法")
	ErrInvalidOrderStatus    = errors.New("订单状态不合法")
)

// 门店相关错误
var (
	ErrShopNotFound           = fmt.Errorf("%w: 门店不存在", ErrNotFound)
	ErrShopUnavailable        = fmt.Errorf("%w: 门店暂不接单", ErrInvalidState)
	ErrInvalidShopStatus      = errors.New("门店状态不合法")
	ErrInvalidLoyaltySettings = errors.New("积分配置不合法")
)

// 积分相关错误
var (
	ErrRewardNotFound     = fmt.Errorf("%w: 奖励不存在", ErrNotFound)
	ErrRewardInactive     = fmt.Errorf("%w: 奖励已下架", ErrInvalidState)
	ErrInvalidReward      = errors.New("奖励参数不合法")
	ErrInvalidLedgerEntry = errors.New("积分记账参数不合法")
)
