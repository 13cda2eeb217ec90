package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/app"
	"retailops/internal/core/id"
	"retailops/internal/domain/auth"
	"retailops/internal/infrastructure/cache"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/storage/memory"
	"retailops/pkg/logger"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	c := app.NewContainer(app.NewMemoryStorage(store), app.Options{
		RevenueCache: cache.NewMemoryRevenueCache(0),
	})
	router := NewRouter(RouterConfig{
		Logger:       logger.NewNop(),
		JWT:          auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		DevTokens:    true,
		Products:     c.Products,
		Ledger:       c.Ledger,
		Packlists:    c.Packlists,
		Orders:       c.Orders,
		Revenue:      c.Revenue,
		Audit:        c.Audit,
		HealthChecks: map[string]handlers.Pinger{"storage": store},
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *apiClient) token(userID string, roles ...string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/api/v1/auth/dev-token", "", map[string]any{
		"userId": userID,
		"roles":  roles,
	})
	require.Equal(a.t, http.StatusOK, code, body)
	return body["accessToken"].(string)
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"storage": "healthy"}, body["checks"])
}

func TestRouter_RequiresToken(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	code, _ = api.do(http.MethodGet, "/api/v1/products", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_PacklistSettlementFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin-1", "admin")
	worker := api.token("w1", "worker")

	code, prod := api.do(http.MethodPost, "/api/v1/products", admin, map[string]any{
		"name":         "Apples",
		"basePrice":    "5",
		"unitType":     "piece",
		"initialStock": 50,
	})
	require.Equal(t, http.StatusCreated, code, prod)
	productID := prod["id"].(string)

	code, pl := api.do(http.MethodPost, "/api/v1/packlists", admin, map[string]any{
		"posId":           id.New().String(),
		"date":            "2026-03-14",
		"assignedUserIds": []string{"w1"},
		"changeAmount":    "50",
		"items":           []map[string]any{{"productId": productID, "plannedQuantity": 30}},
	})
	require.Equal(t, http.StatusCreated, code, pl)
	assert.Equal(t, "open", pl["status"])
	assert.Equal(t, "PL-2026-00001", pl["number"])
	packlistPath := "/api/v1/packlists/" + pl["id"].(string)

	_, prod = api.do(http.MethodGet, "/api/v1/products/"+productID, admin, nil)
	assert.EqualValues(t, 20, prod["currentStock"])
	assert.EqualValues(t, 50, prod["totalStock"])

	code, pl = api.do(http.MethodPost, packlistPath+"/start-selling", worker, nil)
	require.Equal(t, http.StatusOK, code, pl)
	assert.Equal(t, "currently_selling", pl["status"])

	code, pl = api.do(http.MethodPost, packlistPath+"/finish-selling", worker, map[string]any{
		"endQuantities": []map[string]any{{"productId": productID, "quantity": 15}},
		"reportedCash":  "125",
	})
	require.Equal(t, http.StatusOK, code, pl)
	assert.Equal(t, "sold", pl["status"])
	assert.Equal(t, "125", pl["expectedCash"])
	assert.Equal(t, "0", pl["difference"])

	code, body := api.do(http.MethodPost, packlistPath+"/complete", worker, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	code, pl = api.do(http.MethodPost, packlistPath+"/complete", admin, nil)
	require.Equal(t, http.StatusOK, code, pl)
	assert.Equal(t, "completed", pl["status"])

	code, body = api.do(http.MethodPost, packlistPath+"/complete", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_COMPLETED", body["code"])

	// Completion consumes the reservation.
	_, prod = api.do(http.MethodGet, "/api/v1/products/"+productID, admin, nil)
	assert.EqualValues(t, 20, prod["currentStock"])

	code, report := api.do(http.MethodGet, "/api/v1/reports/revenue?range=all", admin, nil)
	require.Equal(t, http.StatusOK, code, report)
	assert.Equal(t, "75", report["totalRevenue"])

	code, _ = api.do(http.MethodGet, "/api/v1/reports/revenue?range=all", worker, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = api.do(http.MethodGet, "/api/v1/reports/revenue?range=7", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	code, history := api.do(http.MethodGet, "/api/v1/audit/packlists/"+pl["id"].(string), admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, history["items"], 4)
}

func TestRouter_OrderConfirmFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin-1", "admin")
	worker := api.token("w1", "worker")

	_, prod := api.do(http.MethodPost, "/api/v1/products", admin, map[string]any{
		"name":         "Flour",
		"basePrice":    "1.2",
		"unitType":     "weight_kg",
		"initialStock": 50,
	})
	productID := prod["id"].(string)

	code, o := api.do(http.MethodPost, "/api/v1/orders", worker, map[string]any{
		"supplierName": "Mill",
		"orderDate":    "2026-03-14",
		"items":        []map[string]any{{"productId": productID, "orderedQuantity": 10}},
	})
	assert.Equal(t, http.StatusForbidden, code, o)

	code, o = api.do(http.MethodPost, "/api/v1/orders", admin, map[string]any{
		"supplierName": "Mill",
		"orderDate":    "2026-03-14",
		"items":        []map[string]any{{"productId": productID, "orderedQuantity": 10}},
	})
	require.Equal(t, http.StatusCreated, code, o)
	assert.Equal(t, "PO-2026-00001", o["number"])
	assert.Equal(t, "10", o["totalKg"])
	orderPath := "/api/v1/orders/" + o["id"].(string)

	code, o = api.do(http.MethodPost, orderPath+"/confirm", worker, nil)
	require.Equal(t, http.StatusOK, code, o)
	assert.Equal(t, "completed", o["status"])
	assert.Equal(t, "w1", o["confirmedBy"])

	_, prod = api.do(http.MethodGet, "/api/v1/products/"+productID, admin, nil)
	assert.EqualValues(t, 60, prod["totalStock"])
	assert.EqualValues(t, 60, prod["currentStock"])

	code, body := api.do(http.MethodPost, orderPath+"/request-check", worker, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_COMPLETED", body["code"])
}

func TestRouter_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin-1", "admin")

	code, body := api.do(http.MethodPost, "/api/v1/packlists", admin, map[string]any{
		"posId": "not-a-uuid",
		"date":  "14/03/2026",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details := body["details"].(map[string]any)
	assert.Len(t, details["fields"], 3)

	code, _ = api.do(http.MethodGet, "/api/v1/packlists/nope", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.do(http.MethodGet, "/api/v1/packlists/"+id.New().String(), admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", body["code"])

	code, _ = api.do(http.MethodGet, "/api/v1/packlists?status=lost", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_StockEdit(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin-1", "admin")
	worker := api.token("w1", "worker")

	_, prod := api.do(http.MethodPost, "/api/v1/products", admin, map[string]any{
		"name": "Eggs", "basePrice": "0.3", "unitType": "piece", "initialStock": 100,
	})
	stockPath := "/api/v1/products/" + prod["id"].(string) + "/stock"

	code, _ := api.do(http.MethodPut, stockPath, worker, map[string]any{"totalStock": 80})
	assert.Equal(t, http.StatusForbidden, code)

	code, m := api.do(http.MethodPut, stockPath, admin, map[string]any{"totalStock": 80})
	require.Equal(t, http.StatusOK, code, m)
	assert.EqualValues(t, -20, m["delta"])
	after := m["after"].(map[string]any)
	assert.EqualValues(t, 80, after["currentStock"])

	code, _ = api.do(http.MethodPut, stockPath, admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}
