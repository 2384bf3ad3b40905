//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   - Full order cycle (register → login → product → order → paid → delivered)
//   - Whole-order stock shortage rejection
//   - Pickup orders never get a delivery record
//   - Delivery board projects paid from the order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"propshop/internal/config"
	"propshop/internal/feed"
	"propshop/internal/infra"
	"propshop/internal/repository"
	"propshop/internal/router"
	"propshop/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("propshop_test"),
		tcPostgres.WithUsername("propshop"),
		tcPostgres.WithPassword("propshop"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		ReceiptStoragePath: t.TempDir(),
		BusinessName:       "E2E Props",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Allowlist the e2e admin so registration succeeds.
	adminRepo := repository.NewAdminRepository(db)
	require.NoError(t, adminRepo.EnsureExists(ctx, "admin@e2e.test"))

	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	loaders := make(map[string]feed.Loader)
	hub := feed.NewHub(rdb, loaders)
	deliverySvc := service.NewDeliveryService(deliveryRepo, orderRepo, hub)
	loaders[service.CollectionOrders] = func(ctx context.Context) (interface{}, error) {
		return orderRepo.ListAll(ctx)
	}
	loaders[service.CollectionDeliveries] = func(ctx context.Context) (interface{}, error) {
		return deliverySvc.List(ctx)
	}
	go hub.Run(ctx)

	engine := router.New(cfg, db, rdb, hub)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	// Activate the account and sign in.
	resp := do(t, srv, http.MethodPost, "/v1/auth/register", jsonBody(t, map[string]any{
		"email":    "admin@e2e.test",
		"password": "e2e-password",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var login struct {
		AccessToken string `json:"access_token"`
	}
	resp = do(t, srv, http.MethodPost, "/v1/auth/login", jsonBody(t, map[string]any{
		"email":    "admin@e2e.test",
		"password": "e2e-password",
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &login)
	require.NotEmpty(t, login.AccessToken)

	return &testEnv{server: srv, token: login.AccessToken}
}

func (e *testEnv) createProduct(t *testing.T, sku string, price float64, stock int) string {
	t.Helper()
	resp := do(t, e.server, http.MethodPost, "/v1/products", jsonBody(t, map[string]any{
		"sku":      sku,
		"name":     "Product " + sku,
		"category": "decor",
		"cost":     price / 2,
		"price":    price,
		"stock":    stock,
	}), e.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	return created.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullDeliveryOrderCycle(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "E2E-01", 10, 10)

	// Create a delivery order with a merged duplicate line (2+3).
	resp := do(t, env.server, http.MethodPost, "/v1/orders", jsonBody(t, map[string]any{
		"receiver_name":     "Jane Cole",
		"receiver_phone":    "08012345678",
		"fulfillment_type":  "delivery",
		"delivery_location": "12 High Street",
		"items": []map[string]any{
			{"product_id": productID, "quantity": 2},
			{"product_id": productID, "quantity": 3},
		},
	}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order struct {
		ID    string `json:"id"`
		Total string `json:"total"`
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
	}
	decodeJSON(t, resp, &order)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.Equal(t, "50", order.Total)

	// Stock decremented once.
	resp = do(t, env.server, http.MethodGet, "/v1/products/"+productID, nil, env.token)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, resp, &prod)
	assert.Equal(t, 5, prod.Stock)

	// Delivery board shows the pending record, unpaid.
	resp = do(t, env.server, http.MethodGet, "/v1/deliveries/"+order.ID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var delivery struct {
		Status string `json:"status"`
		Paid   bool   `json:"paid"`
	}
	decodeJSON(t, resp, &delivery)
	assert.Equal(t, "pending", delivery.Status)
	assert.False(t, delivery.Paid)

	// Deliver before paying is rejected.
	resp = do(t, env.server, http.MethodPatch, fmt.Sprintf("/v1/orders/%s/deliver", order.ID),
		jsonBody(t, map[string]any{"driver_phone": "07000000000"}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Pay, then the projection flips without any delivery write.
	resp = do(t, env.server, http.MethodPatch, fmt.Sprintf("/v1/orders/%s/toggle-paid", order.ID), jsonBody(t, map[string]any{}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodGet, "/v1/deliveries/"+order.ID, nil, env.token)
	decodeJSON(t, resp, &delivery)
	assert.True(t, delivery.Paid)

	// Deliver.
	resp = do(t, env.server, http.MethodPatch, fmt.Sprintf("/v1/orders/%s/deliver", order.ID),
		jsonBody(t, map[string]any{"driver_phone": "07000000000"}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodGet, "/v1/deliveries/"+order.ID, nil, env.token)
	var delivered struct {
		Status      string  `json:"status"`
		DriverPhone *string `json:"driver_phone"`
		DeliveredAt *string `json:"delivered_at"`
	}
	decodeJSON(t, resp, &delivered)
	assert.Equal(t, "delivered", delivered.Status)
	require.NotNil(t, delivered.DriverPhone)
	assert.Equal(t, "07000000000", *delivered.DriverPhone)
	assert.NotNil(t, delivered.DeliveredAt)
}

func TestE2E_StockShortageRejectsOrder(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "E2E-02", 10, 2)

	resp := do(t, env.server, http.MethodPost, "/v1/orders", jsonBody(t, map[string]any{
		"receiver_name":    "Jane Cole",
		"receiver_phone":   "08012345678",
		"fulfillment_type": "pickup",
		"items": []map[string]any{
			{"product_id": productID, "quantity": 5},
		},
	}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Stock untouched.
	resp = do(t, env.server, http.MethodGet, "/v1/products/"+productID, nil, env.token)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, resp, &prod)
	assert.Equal(t, 2, prod.Stock)
}

func TestE2E_PickupOrderHasNoDeliveryRecord(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "E2E-03", 10, 5)

	resp := do(t, env.server, http.MethodPost, "/v1/orders", jsonBody(t, map[string]any{
		"receiver_name":    "Jane Cole",
		"receiver_phone":   "08012345678",
		"fulfillment_type": "pickup",
		"items": []map[string]any{
			{"product_id": productID, "quantity": 1},
		},
	}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &order)

	resp = do(t, env.server, http.MethodGet, "/v1/deliveries/"+order.ID, nil, env.token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_MovementsLedger(t *testing.T) {
	env := setupTestEnv(t)
	productID := env.createProduct(t, "E2E-04", 10, 3)

	// Initial stock logged as IN.
	resp := do(t, env.server, http.MethodGet, "/v1/movements?product_id="+productID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []struct {
			Type string `json:"type"`
			Qty  int    `json:"qty"`
			Note string `json:"note"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "IN", list.Data[0].Type)
	assert.Equal(t, 3, list.Data[0].Qty)
	assert.Equal(t, "Initial stock from add product", list.Data[0].Note)

	// Manual restock.
	resp = do(t, env.server, http.MethodPost, "/v1/movements", jsonBody(t, map[string]any{
		"product_id": productID,
		"type":       "IN",
		"qty":        7,
	}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, http.MethodGet, "/v1/products/"+productID, nil, env.token)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeJSON(t, resp, &prod)
	assert.Equal(t, 10, prod.Stock)
}
