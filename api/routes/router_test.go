package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmdesk/farmdesk-backend/internal/customers"
	"github.com/farmdesk/farmdesk-backend/internal/orders"
	"github.com/farmdesk/farmdesk-backend/internal/stock"
	pkgAuth "github.com/farmdesk/farmdesk-backend/pkg/auth"
	"github.com/farmdesk/farmdesk-backend/pkg/config"
	"github.com/farmdesk/farmdesk-backend/pkg/db/models"
	"github.com/farmdesk/farmdesk-backend/pkg/enums"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
	"github.com/farmdesk/farmdesk-backend/pkg/metrics"
	"github.com/farmdesk/farmdesk-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryStore struct {
	data   map[string]string
	counts map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (m *memoryStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

func (m *memoryStore) Ping(context.Context) error {
	return nil
}

type stubOrders struct {
	placed int
	recent int
	detail int
}

func (s *stubOrders) PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.PlaceOrderResult, error) {
	s.placed++
	return &orders.PlaceOrderResult{OrderID: uuid.New(), TotalAmount: decimal.RequireFromString("15")}, nil
}

func (s *stubOrders) Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: input.Status}, nil
}

func (s *stubOrders) Correct(ctx context.Context, cmd orders.CorrectionCommand) (*models.Order, error) {
	return &models.Order{ID: cmd.OrderID}, nil
}

func (s *stubOrders) Delete(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (s *stubOrders) List(ctx context.Context, input orders.ListInput) (*pagination.Page[orders.OrderView], error) {
	return &pagination.Page[orders.OrderView]{}, nil
}

func (s *stubOrders) Detail(ctx context.Context, input orders.DetailInput) (*orders.OrderView, error) {
	s.detail++
	return &orders.OrderView{ID: input.OrderID}, nil
}

func (s *stubOrders) Recent(ctx context.Context, userID uuid.UUID) ([]orders.RecentOrder, error) {
	s.recent++
	return nil, nil
}

type stubCustomers struct{}

func (stubCustomers) GetOrCreate(ctx context.Context, userID uuid.UUID) (*customers.ProfileDTO, error) {
	return &customers.ProfileDTO{UserID: userID}, nil
}

func (stubCustomers) Update(ctx context.Context, userID uuid.UUID, cmd customers.UpdateProfileCommand) (*customers.ProfileDTO, error) {
	return &customers.ProfileDTO{UserID: userID}, nil
}

type stubLedger struct{}

func (stubLedger) Adjust(ctx context.Context, input stock.AdjustInput) (*stock.Adjustment, error) {
	return &stock.Adjustment{ProductID: input.ProductID, Delta: input.Delta}, nil
}

func (stubLedger) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	return nil, nil
}

type routerFixture struct {
	handler http.Handler
	cfg     *config.Config
	orders  *stubOrders
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "farmdesk", ExpirationMinutes: 10},
		Orders: config.OrdersConfig{
			PlacementWindow:    time.Minute,
			PlacementUserLimit: 2,
		},
	}
	reg := prometheus.NewRegistry()
	_ = metrics.NewOrderMetrics(reg)
	svc := &stubOrders{}
	handler := NewRouter(cfg, logger.Nop(), stubPinger{}, newMemoryStore(), reg, svc, stubCustomers{}, stubLedger{})
	return &routerFixture{handler: handler, cfg: cfg, orders: svc}
}

func (f *routerFixture) token(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, body, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health/live", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health/ready", "", "", nil).Code)

	rec := f.do(t, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inventory_low_stock_total")
}

func TestOrdersRequireAuth(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/orders", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrderCapabilityAndIdempotency(t *testing.T) {
	f := newRouterFixture(t)
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":3}]}`

	employee := f.token(t, uuid.New(), enums.UserRoleEmployee)
	rec := f.do(t, http.MethodPost, "/api/v1/orders", body, employee, map[string]string{"Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	customer := f.token(t, uuid.New(), enums.UserRoleCustomer)
	rec = f.do(t, http.MethodPost, "/api/v1/orders", body, customer, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, "keyless placement is served without replay")
	assert.Equal(t, 1, f.orders.placed)

	first := f.do(t, http.MethodPost, "/api/v1/orders", body, customer, map[string]string{"Idempotency-Key": "k1"})
	require.Equal(t, http.StatusCreated, first.Code)
	replay := f.do(t, http.MethodPost, "/api/v1/orders", body, customer, map[string]string{"Idempotency-Key": "k1"})
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 2, f.orders.placed)
}

func TestPlaceOrderRateLimited(t *testing.T) {
	f := newRouterFixture(t)
	customer := f.token(t, uuid.New(), enums.UserRoleCustomer)
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/orders", body, customer, map[string]string{"Idempotency-Key": fmt.Sprintf("key-%d", i)})
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestRecentIsNotTreatedAsOrderID(t *testing.T) {
	f := newRouterFixture(t)
	customer := f.token(t, uuid.New(), enums.UserRoleCustomer)

	rec := f.do(t, http.MethodGet, "/api/v1/orders/recent", "", customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.orders.recent)
	assert.Equal(t, 0, f.orders.detail)
}

func TestRoleGates(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, uuid.New(), enums.UserRoleAdmin)
	customer := f.token(t, uuid.New(), enums.UserRoleCustomer)
	farmer := f.token(t, uuid.New(), enums.UserRoleFarmer)
	orderPath := "/api/v1/orders/" + uuid.NewString()
	productPath := "/api/v1/products/" + uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"admin cannot edit profile", http.MethodPut, "/api/v1/customers/me", `{"full_name":"x"}`, admin, http.StatusForbidden},
		{"customer reads profile", http.MethodGet, "/api/v1/customers/me", "", customer, http.StatusOK},
		{"customer cannot transition", http.MethodPut, orderPath + "/status", `{"status":"shipped"}`, customer, http.StatusForbidden},
		{"admin transitions", http.MethodPut, orderPath + "/status", `{"status":"shipped"}`, admin, http.StatusOK},
		{"farmer cannot transition", http.MethodPut, orderPath + "/status", `{"status":"shipped"}`, farmer, http.StatusForbidden},
		{"farmer corrects", http.MethodPut, orderPath, `{"delivery_address":"Barn 2"}`, farmer, http.StatusOK},
		{"customer cannot delete", http.MethodDelete, orderPath, "", customer, http.StatusForbidden},
		{"farmer deletes", http.MethodDelete, orderPath, "", farmer, http.StatusOK},
		{"customer cannot adjust stock", http.MethodPost, productPath + "/stock-adjustments", `{"delta":5}`, customer, http.StatusForbidden},
		{"farmer adjusts stock", http.MethodPost, productPath + "/stock-adjustments", `{"delta":5}`, farmer, http.StatusOK},
		{"farmer lists movements", http.MethodGet, productPath + "/stock-movements", "", farmer, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body, tt.token, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
