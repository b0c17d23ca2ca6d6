package public

import (
	handlershared "github.com/loyalcup/backend/internal/http/handlers/shared"
	"github.com/loyalcup/backend/internal/http/response"
	"github.com/loyalcup/backend/internal/service"

	"github.com/gin-gonic/gin"
)

var shopReadErrorRules = []handlershared.MappedError{
	{Target: service.ErrShopNotFound, Code: response.CodeNotFound, Key: "error.shop_not_found"},
}

var orderPricingErrorRules = []handlershared.MappedError{
	{Target: service.ErrShopNotFound, Code: response.CodeNotFound, Key: "error.shop_not_found"},
	{Target: service.ErrShopUnavailable, Code: response.CodeConflict, Key: "error.shop_unavailable"},
	{Target: service.ErrEmptyOrder, Code: response.CodeBadRequest, Key: "error.order_empty"},
	{Target: service.ErrInvalidOrderItem, Code: response.CodeBadRequest, Key: "error.order_item_invalid"},
	{Target: service.ErrInvalidTaxRate, Code: response.CodeInternal, Key: "error.tax_rate_invalid"},
}

var orderReadErrorRules = []handlershared.MappedError{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrInvalidOrderStatus, Code: response.CodeBadRequest, Key: "error.order_status_invalid"},
}

var orderCancelErrorRules = handlershared.ConcatMappedErrors(orderReadErrorRules, []handlershared.MappedError{
	{Target: service.ErrOrderCancelNotAllowed, Code: response.CodeConflict, Key: "error.order_cancel_not_allowed"},
	{Target: service.ErrInvalidTransition, Code: response.CodeConflict, Key: "error.order_transition_invalid"},
})

var loyaltyRedeemErrorRules = []handlershared.MappedError{
	{Target: service.ErrRewardNotFound, Code: response.CodeNotFound, Key: "error.reward_not_found"},
	{Target: service.ErrRewardInactive, Code: response.CodeConflict, Key: "error.reward_inactive"},
	{Target: service.ErrInsufficientBalance, Code: response.CodeUnprocessable, Key: "error.loyalty_insufficient"},
	{Target: service.ErrLedgerUnavailable, Code: response.CodeServiceUnavailable, Key: "error.loyalty_unavailable"},
}

func respondShopReadError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, shopReadErrorRules, response.CodeInternal, fallbackKey)
}

func respondOrderPricingError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, orderPricingErrorRules, response.CodeInternal, fallbackKey)
}

func respondOrderReadError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderReadErrorRules, response.CodeInternal, "error.order_fetch_failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "error.order_update_failed")
}

func respondLoyaltyRedeemError(c *gin.Context, err error) {
	respondWithMappedError(c, err, loyaltyRedeemErrorRules, response.CodeInternal, "error.loyalty_redeem_failed")
}
