package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/constants"
	"github.com/loyalcup/backend/internal/models"
	"github.com/loyalcup/backend/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type routerFixture struct {
	engine *gin.Engine
	shop   *models.Shop
	latte  *models.MenuItem
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Auth:   testAuthConfig(),
		Order:  config.OrderConfig{TaxRate: "0.08", Currency: "USD"},
	}
	container := provider.NewContainerWithDB(cfg, db, nil, nil)
	if err := container.AuthzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	shop := &models.Shop{
		OwnerID:                     "owner-1",
		Name:                        "Bean There",
		Status:                      constants.ShopStatusActive,
		LoyaltyPointsPerDollar:      10,
		ParticipatesInGlobalLoyalty: true,
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	latte := &models.MenuItem{ShopID: shop.ID, Name: "Latte", BasePrice: models.MustMoney("10.00"), IsAvailable: true}
	if err := db.Create(latte).Error; err != nil {
		t.Fatalf("create menu item failed: %v", err)
	}
	milk := &models.CustomizationTemplate{
		ShopID: shop.ID,
		Name:   "Milk",
		Type:   constants.CustomizationTypeSingleSelect,
		Options: models.CustomizationOptions{
			{Name: "Whole", Price: models.MustMoney("0")},
			{Name: "Oat", Price: models.MustMoney("0.75")},
		},
	}
	if err := db.Create(milk).Error; err != nil {
		t.Fatalf("create template failed: %v", err)
	}

	return &routerFixture{
		engine: SetupRouter(cfg, container),
		shop:   shop,
		latte:  latte,
	}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: unmarshal response failed: %v body=%s", method, path, err, w.Body.String())
	}
	return w.Code, resp
}

func balancePoints(t *testing.T, resp envelope) int64 {
	t.Helper()
	var view struct {
		Points int64 `json:"points"`
	}
	if err := json.Unmarshal(resp.Data, &view); err != nil {
		t.Fatalf("unmarshal balance failed: %v", err)
	}
	return view.Points
}

func TestPublicShopRoutes(t *testing.T) {
	f := setupRouterFixture(t)

	code, _ := f.do(t, http.MethodGet, "/api/v1/shops", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list shops want 200 got %d", code)
	}
	code, _ = f.do(t, http.MethodGet, "/api/v1/shops/"+f.shop.ID+"/menu", "", nil)
	if code != http.StatusOK {
		t.Fatalf("shop menu want 200 got %d", code)
	}
	code, resp := f.do(t, http.MethodGet, "/api/v1/shops/missing", "", nil)
	if code != http.StatusNotFound || resp.StatusCode != 404 {
		t.Fatalf("missing shop want 404 got http=%d code=%d", code, resp.StatusCode)
	}
}

func TestOrdersRequireAuthentication(t *testing.T) {
	f := setupRouterFixture(t)

	code, resp := f.do(t, http.MethodGet, "/api/v1/orders", "", nil)
	if code != http.StatusUnauthorized || resp.StatusCode != 401 {
		t.Fatalf("want 401 got http=%d code=%d", code, resp.StatusCode)
	}
}

func TestOrderLifecycleAwardsAndRedeemsPoints(t *testing.T) {
	f := setupRouterFixture(t)
	customer := signTestToken(t, testJWTSecret, testClaims("cust-1", "", "", time.Hour))
	owner := signTestToken(t, testJWTSecret, testClaims("owner-1", constants.RoleShopOwner, "", time.Hour))
	otherWorker := signTestToken(t, testJWTSecret, testClaims("worker-9", constants.RoleShopWorker, "another-shop", time.Hour))

	orderBody := map[string]interface{}{
		"shop_id": f.shop.ID,
		"items": []map[string]interface{}{
			{
				"menu_item_id":   f.latte.ID,
				"quantity":       2,
				"customizations": []map[string]string{{"template": "Milk", "option": "Oat"}},
			},
		},
	}
	code, resp := f.do(t, http.MethodPost, "/api/v1/orders", customer, orderBody)
	if code != http.StatusCreated {
		t.Fatalf("create order want 201 got %d msg=%s", code, resp.Msg)
	}
	var order struct {
		ID                  string `json:"id"`
		Status              string `json:"status"`
		Total               string `json:"total"`
		LoyaltyPointsEarned int64  `json:"loyalty_points_earned"`
		GlobalPointsEarned  int64  `json:"global_points_earned"`
	}
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("unmarshal order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("new order status want pending got %s", order.Status)
	}
	if order.Total != "23.22" {
		t.Fatalf("total want 23.22 got %s", order.Total)
	}
	if order.LoyaltyPointsEarned != 232 || order.GlobalPointsEarned != 23 {
		t.Fatalf("points preview want 232/23 got %d/%d", order.LoyaltyPointsEarned, order.GlobalPointsEarned)
	}

	statusPath := fmt.Sprintf("/api/v1/owner/shops/%s/orders/%s/status", f.shop.ID, order.ID)
	code, _ = f.do(t, http.MethodPut, statusPath, customer, map[string]string{"status": constants.OrderStatusAccepted})
	if code != http.StatusForbidden {
		t.Fatalf("customer status update want 403 got %d", code)
	}
	code, _ = f.do(t, http.MethodPut, statusPath, otherWorker, map[string]string{"status": constants.OrderStatusAccepted})
	if code != http.StatusForbidden {
		t.Fatalf("worker of another shop want 403 got %d", code)
	}
	code, _ = f.do(t, http.MethodPut, statusPath, owner, map[string]string{"status": constants.OrderStatusCompleted})
	if code != http.StatusConflict {
		t.Fatalf("skipping states want 409 got %d", code)
	}

	for _, next := range []string{
		constants.OrderStatusAccepted,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusPickedUp,
		constants.OrderStatusCompleted,
	} {
		code, resp = f.do(t, http.MethodPut, statusPath, owner, map[string]string{"status": next})
		if code != http.StatusOK {
			t.Fatalf("advance to %s want 200 got %d msg=%s", next, code, resp.Msg)
		}
	}

	code, resp = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", customer, nil)
	if code != http.StatusConflict {
		t.Fatalf("cancel completed order want 409 got %d", code)
	}

	code, resp = f.do(t, http.MethodGet, "/api/v1/loyalty/balances/"+f.shop.ID, customer, nil)
	if code != http.StatusOK {
		t.Fatalf("shop balance want 200 got %d", code)
	}
	if got := balancePoints(t, resp); got != 232 {
		t.Fatalf("shop balance want 232 got %d", got)
	}
	code, resp = f.do(t, http.MethodGet, "/api/v1/loyalty/balances/global", customer, nil)
	if code != http.StatusOK {
		t.Fatalf("global balance want 200 got %d", code)
	}
	if got := balancePoints(t, resp); got != 23 {
		t.Fatalf("global balance want 23 got %d", got)
	}

	rewardsPath := fmt.Sprintf("/api/v1/owner/shops/%s/rewards", f.shop.ID)
	code, resp = f.do(t, http.MethodPost, rewardsPath, owner, map[string]interface{}{
		"name":            "Free Latte",
		"points_required": 200,
	})
	if code != http.StatusCreated {
		t.Fatalf("create reward want 201 got %d msg=%s", code, resp.Msg)
	}
	var reward struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &reward); err != nil {
		t.Fatalf("unmarshal reward failed: %v", err)
	}

	code, resp = f.do(t, http.MethodPost, "/api/v1/loyalty/redeem", customer, map[string]string{"reward_id": reward.ID})
	if code != http.StatusOK {
		t.Fatalf("redeem want 200 got %d msg=%s", code, resp.Msg)
	}
	code, resp = f.do(t, http.MethodPost, "/api/v1/loyalty/redeem", customer, map[string]string{"reward_id": reward.ID})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("second redeem want 422 got %d", code)
	}

	_, resp = f.do(t, http.MethodGet, "/api/v1/loyalty/balances/"+f.shop.ID, customer, nil)
	if got := balancePoints(t, resp); got != 32 {
		t.Fatalf("shop balance after redeem want 32 got %d", got)
	}
}

func TestCustomerCancelsPendingOrder(t *testing.T) {
	f := setupRouterFixture(t)
	customer := signTestToken(t, testJWTSecret, testClaims("cust-2", "", "", time.Hour))
	stranger := signTestToken(t, testJWTSecret, testClaims("cust-3", "", "", time.Hour))

	code, resp := f.do(t, http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
		"shop_id": f.shop.ID,
		"items":   []map[string]interface{}{{"menu_item_id": f.latte.ID, "quantity": 1}},
	})
	if code != http.StatusCreated {
		t.Fatalf("create order want 201 got %d msg=%s", code, resp.Msg)
	}
	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &order); err != nil {
		t.Fatalf("unmarshal order failed: %v", err)
	}

	code, _ = f.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, stranger, nil)
	if code != http.StatusNotFound {
		t.Fatalf("other customer's order want 404 got %d", code)
	}
	code, _ = f.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", customer, nil)
	if code != http.StatusOK {
		t.Fatalf("cancel pending order want 200 got %d", code)
	}
}
